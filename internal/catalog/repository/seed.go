package repository

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Users         []seedUser `yaml:"users"`
	Types         []seedType `yaml:"types"`
	Label         string     `yaml:"label"`
	CreatedBy     string     `yaml:"createdBy"`
	CreatedByName string     `yaml:"createdByName"`
	Cities        []seedCity `yaml:"cities"`
}

type seedUser struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Name     string `yaml:"name"`
}

type seedType struct {
	Key          string `yaml:"key"`
	Label        string `yaml:"label"`
	Color        string `yaml:"color"`
	BgColorClass string `yaml:"bgColorClass"`
}

type seedCity struct {
	City     string        `yaml:"city"`
	Projects []seedProject `yaml:"projects"`
}

type seedProject struct {
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	Lat     float64 `yaml:"lat"`
	Lng     float64 `yaml:"lng"`
	Details string  `yaml:"details"`
}

// SeedData is the initial dataset shipped with the binary.
type SeedData struct {
	Users    []domain.User
	Types    []domain.ProjectTypeDef
	Projects []domain.Project
}

// LoadSeed parses the embedded dataset. Project ids are p1..pN in file order.
func LoadSeed() (*SeedData, error) {
	var f seedFile
	if err := yaml.Unmarshal(seedYAML, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}

	data := &SeedData{}
	for _, u := range f.Users {
		data.Users = append(data.Users, domain.User(u))
	}
	for _, t := range f.Types {
		data.Types = append(data.Types, domain.ProjectTypeDef(t))
	}

	n := 0
	for _, c := range f.Cities {
		for _, p := range c.Projects {
			n++
			data.Projects = append(data.Projects, domain.Project{
				ID:                fmt.Sprintf("p%d", n),
				Name:              p.Name,
				City:              c.City,
				Type:              p.Type,
				Label:             f.Label,
				Lat:               p.Lat,
				Lng:               p.Lng,
				PublicDescription: p.Details,
				Images:            []domain.ImageItem{},
				CreatedBy:         f.CreatedBy,
				CreatedByName:     f.CreatedByName,
			})
		}
	}
	return data, nil
}

// SeedResult reports which collections Seed populated.
type SeedResult struct {
	Users    int
	Types    int
	Projects int
}

// Seed fills every empty collection from the embedded dataset. Collections
// that already hold data are left alone.
func (s *Store) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	data, err := LoadSeed()
	if err != nil {
		return res, err
	}

	users, err := s.client.HLen(ctx, userHashKey).Result()
	if err != nil {
		return res, fmt.Errorf("failed to count users: %w", err)
	}
	if users == 0 {
		for _, u := range data.Users {
			if err := s.AddUser(ctx, u); err != nil {
				return res, fmt.Errorf("seed user %s: %w", u.ID, err)
			}
			res.Users++
		}
	}

	types, err := s.client.HLen(ctx, typeHashKey).Result()
	if err != nil {
		return res, fmt.Errorf("failed to count project types: %w", err)
	}
	if types == 0 {
		for _, t := range data.Types {
			if err := s.AddProjectType(ctx, t); err != nil {
				return res, fmt.Errorf("seed type %s: %w", t.Key, err)
			}
			res.Types++
		}
	}

	projects, err := s.CountProjects(ctx)
	if err != nil {
		return res, err
	}
	if projects == 0 {
		if _, err := s.upsert(ctx, data.Projects); err != nil {
			return res, fmt.Errorf("seed projects: %w", err)
		}
		res.Projects = len(data.Projects)
	}

	slog.InfoContext(ctx, "seed complete", "users", res.Users, "types", res.Types, "projects", res.Projects)
	return res, nil
}
