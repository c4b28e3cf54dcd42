package domain

import "time"

// Role values a User may hold. Anything else is treated as no access.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// Permission levels an export can be produced for. They describe the
// intended audience of an artifact, not the role of whoever produced it.
const (
	PermissionAdmin = "admin"
	PermissionGuest = "guest"
)

// AdminID is the id of the canonical administrator account.
const AdminID = "admin"

// Defaults applied to projects created without explicit values.
const (
	DefaultProjectType  = "Commercial"
	DefaultProjectLabel = "待定"
	DefaultProjectName  = "新建项目"
)

type ImageItem struct {
	Src     string   `json:"src"`
	Caption string   `json:"caption"`
	Audios  []string `json:"audios,omitempty"`
}

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Project is a surveyed site. The JSON field names are the interchange
// format shared with import/export files and the browser client.
type Project struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	City                string       `json:"city"`
	Type                string       `json:"type"`
	Label               string       `json:"label"`
	Lat                 float64      `json:"lat"`
	Lng                 float64      `json:"lng"`
	IsHidden            bool         `json:"isHidden"`
	PublicDescription   string       `json:"publicDescription"`
	Images              []ImageItem  `json:"images"`
	InternalDescription string       `json:"internalDescription,omitempty"`
	InternalImages      []ImageItem  `json:"internalImages,omitempty"`
	Attachments         []Attachment `json:"attachments,omitempty"`
	CreatedBy           string       `json:"createdBy,omitempty"`
	CreatedByName       string       `json:"createdByName,omitempty"`
}

// Clone returns a deep copy that shares no slices with p.
func (p Project) Clone() Project {
	c := p
	c.Images = cloneImages(p.Images)
	c.InternalImages = cloneImages(p.InternalImages)
	if p.Attachments != nil {
		c.Attachments = append([]Attachment(nil), p.Attachments...)
	}
	return c
}

// PublicProject carries only the fields a guest may ever receive. Values of
// this type are what guest-level artifacts serialize, so internal and
// authorship fields cannot appear in them.
type PublicProject struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	City              string      `json:"city"`
	Type              string      `json:"type"`
	Label             string      `json:"label"`
	Lat               float64     `json:"lat"`
	Lng               float64     `json:"lng"`
	IsHidden          bool        `json:"isHidden"`
	PublicDescription string      `json:"publicDescription"`
	Images            []ImageItem `json:"images"`
}

func (p Project) Public() PublicProject {
	return PublicProject{
		ID:                p.ID,
		Name:              p.Name,
		City:              p.City,
		Type:              p.Type,
		Label:             p.Label,
		Lat:               p.Lat,
		Lng:               p.Lng,
		IsHidden:          p.IsHidden,
		PublicDescription: p.PublicDescription,
		Images:            nonNilImages(cloneImages(p.Images)),
	}
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

type ProjectTypeDef struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	Color        string `json:"color"`
	BgColorClass string `json:"bgColorClass"`
}

// Session binds a login token to a user.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event is published after every store mutation so that connected clients
// can re-fetch.
type Event struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"projectId,omitempty"`
	City      string    `json:"city,omitempty"`
	Count     int       `json:"count,omitempty"`
	At        time.Time `json:"at"`
}

const (
	EventProjectSaved      = "project.saved"
	EventProjectDeleted    = "project.deleted"
	EventProjectsReordered = "projects.reordered"
	EventProjectsImported  = "projects.imported"
	EventProjectsCleared   = "projects.cleared"
	EventCityDeleted       = "city.deleted"
	EventLabelRenamed      = "label.renamed"
	EventTypeAdded         = "type.added"
	EventUsersChanged      = "users.changed"
	EventSettingsChanged   = "settings.changed"
)

func cloneImages(in []ImageItem) []ImageItem {
	if in == nil {
		return nil
	}
	out := make([]ImageItem, len(in))
	for i, img := range in {
		out[i] = img
		if img.Audios != nil {
			out[i].Audios = append([]string(nil), img.Audios...)
		}
	}
	return out
}

func nonNilImages(in []ImageItem) []ImageItem {
	if in == nil {
		return []ImageItem{}
	}
	return in
}
