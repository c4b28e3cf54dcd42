package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tztw/projectmap/internal/archive"
	"github.com/tztw/projectmap/internal/audit"
	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/filter"
	"github.com/tztw/projectmap/internal/catalog/repository"
)

var (
	adminUser = domain.User{ID: domain.AdminID, Username: "admin", Password: "123", Role: domain.RoleAdmin, Name: "主管理员"}
	editorOne = domain.User{ID: "u1", Username: "editor1", Password: "123", Role: domain.RoleEditor, Name: "编辑一"}
	editorTwo = domain.User{ID: "u2", Username: "editor2", Password: "456", Role: domain.RoleEditor, Name: "编辑二"}
)

var fixedNow = time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(ctx context.Context, e *audit.Entry) error {
	r.entries = append(r.entries, *e)
	return nil
}

func (r *recordingAudit) List(ctx context.Context, limit int) ([]audit.Entry, error) {
	return r.entries, nil
}

type testEnv struct {
	svc     *Service
	store   *repository.Store
	archive *archive.Memory
	audit   *recordingAudit
}

func fixtureProjects() []domain.Project {
	return []domain.Project{
		{ID: "p1", Name: "成都文殊坊", City: "成都", Type: "Commercial", Label: "大名考察", Lat: 30.67, Lng: 104.07,
			Images: []domain.ImageItem{}, InternalDescription: "admin-secret", CreatedBy: "admin", CreatedByName: "主管理员"},
		{ID: "p2", Name: "锦江宾馆", City: "成都", Type: "Hotel", Label: "初步考察", Lat: 30.65, Lng: 104.06,
			Images: []domain.ImageItem{}, InternalDescription: "u1-secret", CreatedBy: "u1", CreatedByName: "编辑一"},
		{ID: "p3", Name: "西溪隐藏", City: "杭州", Type: "Commercial", Label: "大名考察", IsHidden: true, Lat: 30.27, Lng: 120.08,
			Images: []domain.ImageItem{}, CreatedBy: "u2", CreatedByName: "编辑二"},
		{ID: "p4", Name: "外滩酒店", City: "上海", Type: "Hotel", Label: "", Lat: 31.24, Lng: 121.49,
			Images: []domain.ImageItem{}, CreatedBy: "u1", CreatedByName: "编辑一"},
	}
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := repository.New(client, time.Hour)
	for _, u := range []domain.User{adminUser, editorOne, editorTwo} {
		require.NoError(t, store.AddUser(ctx, u))
	}
	require.NoError(t, store.AddProjectType(ctx, domain.ProjectTypeDef{Key: "Commercial", Label: "商业街", Color: "#e74c3c"}))
	require.NoError(t, store.AddProjectType(ctx, domain.ProjectTypeDef{Key: "Hotel", Label: "酒店", Color: "#16a085"}))
	_, err = store.SaveProjects(ctx, fixtureProjects())
	require.NoError(t, err)

	env := &testEnv{store: store, archive: archive.NewMemory(), audit: &recordingAudit{}}
	env.svc = New(Deps{
		Store:   store,
		Archive: env.archive,
		Audit:   env.audit,
		Now:     func() time.Time { return fixedNow },
	})
	return env
}

func viewer(u domain.User) *domain.User { return &u }

func itemIDs(view *ProjectsView) []string {
	var out []string
	for _, g := range view.Groups {
		for _, p := range g.Projects {
			out = append(out, p.ID)
		}
	}
	return out
}

func TestLogin_SessionLifecycle(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	sess, u, err := env.svc.Login(ctx, " editor1 ", "123")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	got, err := env.svc.Viewer(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	require.NoError(t, env.svc.Logout(ctx, sess.Token))
	_, err = env.svc.Viewer(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrAuth)

	_, _, err = env.svc.Login(ctx, "editor1", "wrong")
	assert.ErrorIs(t, err, domain.ErrAuth)

	anon, err := env.svc.Viewer(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, anon)
}

func TestListProjects_GuestView(t *testing.T) {
	env := setupService(t)

	view, err := env.svc.ListProjects(context.Background(), nil, "guest-1", filter.Criteria{})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "p4"}, itemIDs(view))
	require.Len(t, view.Groups, 2)
	assert.Equal(t, "成都", view.Groups[0].City)
	assert.True(t, view.Groups[0].AllSelected)
	assert.Equal(t, 3, view.SelectedCount)
	assert.True(t, view.AllSelected)
	assert.Equal(t, []string{"上海", "成都"}, view.Options.Cities)
	assert.Equal(t, repository.DefaultLabelFieldName, view.LabelFieldName)

	for _, g := range view.Groups {
		for _, p := range g.Projects {
			assert.Empty(t, p.InternalDescription)
			assert.False(t, p.CanEdit)
			assert.Equal(t, 1.0, p.Opacity)
		}
	}
}

func TestListProjects_EditorView(t *testing.T) {
	env := setupService(t)

	view, err := env.svc.ListProjects(context.Background(), viewer(editorOne), "s-u1", filter.Criteria{Cities: []string{"成都", "杭州"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, itemIDs(view))

	items := map[string]ProjectItem{}
	for _, g := range view.Groups {
		for _, p := range g.Projects {
			items[p.ID] = p
		}
	}
	assert.False(t, items["p1"].CanEdit)
	assert.Empty(t, items["p1"].InternalDescription)
	assert.True(t, items["p2"].CanEdit)
	assert.Equal(t, "u1-secret", items["p2"].InternalDescription)
	assert.Equal(t, 0.5, items["p3"].Opacity)
	assert.Equal(t, 4, view.SelectedCount)
}

func TestGetProject_Visibility(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.GetProject(ctx, nil, "p3")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := env.svc.GetProject(ctx, viewer(editorOne), "p1")
	require.NoError(t, err)
	assert.Empty(t, p.InternalDescription)

	p, err = env.svc.GetProject(ctx, viewer(editorOne), "p2")
	require.NoError(t, err)
	assert.Equal(t, "u1-secret", p.InternalDescription)

	_, err = env.svc.GetProject(ctx, viewer(adminUser), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateProject(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.CreateProject(ctx, nil, ProjectInput{City: "成都"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.CreateProject(ctx, viewer(editorOne), ProjectInput{City: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := env.svc.AddCity(ctx, viewer(editorOne), "重庆", 29.56, 106.55)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultProjectName, p.Name)
	assert.Equal(t, domain.DefaultProjectLabel, p.Label)
	assert.Equal(t, domain.DefaultProjectType, p.Type)
	assert.Equal(t, "u1", p.CreatedBy)
	assert.Equal(t, "编辑一", p.CreatedByName)

	stored, err := env.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "重庆", stored.City)
}

func TestUpdateProject_FailsClosed(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.UpdateProject(ctx, viewer(editorOne), "p1", ProjectInput{Name: "x", City: "成都"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	unchanged, err := env.store.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "成都文殊坊", unchanged.Name)

	_, err = env.svc.UpdateProject(ctx, &domain.User{ID: "x", Role: "superuser"}, "p1", ProjectInput{Name: "x", City: "成都"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	p, err := env.svc.UpdateProject(ctx, viewer(editorOne), "p2", ProjectInput{Name: "锦江宾馆二期", City: "成都", Type: "Hotel", IsHidden: true})
	require.NoError(t, err)
	assert.Equal(t, "锦江宾馆二期", p.Name)
	assert.Equal(t, "u1", p.CreatedBy)
	assert.True(t, p.IsHidden)
	assert.NotNil(t, p.Images)

	_, err = env.svc.UpdateProject(ctx, viewer(adminUser), "p2", ProjectInput{Name: "", City: "成都"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteProject(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.DeleteProject(ctx, viewer(editorOne), "p1"), domain.ErrForbidden)
	require.NoError(t, env.svc.DeleteProject(ctx, viewer(editorOne), "p4"))
	require.NoError(t, env.svc.DeleteProject(ctx, viewer(adminUser), "p1"))
	assert.ErrorIs(t, env.svc.DeleteProject(ctx, viewer(adminUser), "p1"), domain.ErrNotFound)

	n, err := env.store.CountProjects(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestDeleteCity_AdminOnly(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.DeleteCity(ctx, viewer(editorOne), "成都")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	ids, err := env.svc.DeleteCity(ctx, viewer(adminUser), "成都")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)

	_, err = env.svc.DeleteCity(ctx, viewer(adminUser), "成都")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRenameLabel(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.RenameLabel(ctx, nil, "大名考察", "初步考察")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	n, err := env.svc.RenameLabel(ctx, viewer(editorOne), "大名考察", "初步考察")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := env.store.GetProjects(ctx)
	require.NoError(t, err)
	for _, p := range all {
		assert.NotEqual(t, "大名考察", p.Label)
	}

	_, err = env.svc.RenameLabel(ctx, viewer(editorOne), "初步考察", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetLabelFieldName(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.SetLabelFieldName(ctx, viewer(editorOne), "阶段"), domain.ErrForbidden)
	require.NoError(t, env.svc.SetLabelFieldName(ctx, viewer(adminUser), "阶段"))

	name, err := env.store.GetLabelFieldName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "阶段", name)
}

func TestReorder(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.Reorder(ctx, viewer(editorOne), []string{"p4"}), domain.ErrForbidden)
	require.NoError(t, env.svc.Reorder(ctx, viewer(adminUser), []string{"p4", "ghost", "p1", "p4"}))

	all, err := env.store.GetProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p4", "p1", "p2", "p3"}, projectIDs(all))
}

func TestAddType(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.AddType(ctx, nil, "剧场", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = env.svc.AddType(ctx, viewer(editorOne), "  ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	def, err := env.svc.AddType(ctx, viewer(editorOne), "剧场", "#8e44ad")
	require.NoError(t, err)
	assert.Contains(t, def.Key, "Type_")

	types, err := env.svc.ListTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, "剧场", types[2].Label)
}

func TestUsers_AdminPanel(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.ListUsers(ctx, viewer(editorOne))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = env.svc.AddUser(ctx, viewer(editorOne), NewUser{Username: "x", Password: "y"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	u, err := env.svc.AddUser(ctx, viewer(adminUser), NewUser{Username: "editor3", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEditor, u.Role)
	assert.Equal(t, "editor3", u.Name)

	_, err = env.svc.AddUser(ctx, viewer(adminUser), NewUser{Username: "editor3", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	assert.ErrorIs(t, env.svc.DeleteUser(ctx, viewer(adminUser), domain.AdminID), domain.ErrForbidden)
	require.NoError(t, env.svc.DeleteUser(ctx, viewer(adminUser), "u2"))

	users, err := env.svc.ListUsers(ctx, viewer(adminUser))
	require.NoError(t, err)
	assert.Len(t, users, 3)
	assert.Equal(t, "123", users[0].Password)
}

func TestOverview(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.Overview(ctx, viewer(editorOne), "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := env.svc.Overview(ctx, viewer(adminUser), filter.CreatorAll)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)
	require.Len(t, all.Creators, 3)
	assert.Equal(t, CreatorCount{ID: "u1", Name: "编辑一", Count: 2}, all.Creators[1])

	mine, err := env.svc.Overview(ctx, viewer(adminUser), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Total)
	require.Len(t, mine.Groups, 2)
	assert.Equal(t, "成都", mine.Groups[0].City)
	assert.Equal(t, "上海", mine.Groups[1].City)
}

func TestClearProjects(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.ClearProjects(ctx, viewer(editorOne)), domain.ErrForbidden)
	require.NoError(t, env.svc.ClearProjects(ctx, viewer(adminUser)))
	n, err := env.store.CountProjects(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDispatch(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	u1 := viewer(editorOne)

	_, err := env.svc.Dispatch(ctx, nil, Command{Kind: CommandUpdateField, ProjectID: "p2", Field: FieldName, Value: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	p, err := env.svc.Dispatch(ctx, u1, Command{Kind: CommandUpdateField, ProjectID: "p2", Field: FieldName, Value: " 新名称 "})
	require.NoError(t, err)
	assert.Equal(t, "新名称", p.Name)

	_, err = env.svc.Dispatch(ctx, u1, Command{Kind: CommandUpdateField, ProjectID: "p2", Field: "createdBy", Value: "u2"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.svc.Dispatch(ctx, u1, Command{Kind: CommandChangeType, ProjectID: "p2", Value: "Nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	p, err = env.svc.Dispatch(ctx, u1, Command{Kind: CommandChangeType, ProjectID: "p2", Value: "Commercial"})
	require.NoError(t, err)
	assert.Equal(t, "Commercial", p.Type)

	p, err = env.svc.Dispatch(ctx, u1, Command{Kind: CommandToggleVisibility, ProjectID: "p2"})
	require.NoError(t, err)
	assert.True(t, p.IsHidden)

	lat, lng := 30.5, 104.1
	p, err = env.svc.Dispatch(ctx, u1, Command{Kind: CommandMoveMarker, ProjectID: "p2", Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	assert.Equal(t, 30.5, p.Lat)

	bad := 200.0
	_, err = env.svc.Dispatch(ctx, u1, Command{Kind: CommandMoveMarker, ProjectID: "p2", Lat: &lat, Lng: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	stored, err := env.store.GetProject(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "新名称", stored.Name)
	assert.Equal(t, 104.1, stored.Lng)

	_, err = env.svc.Dispatch(ctx, nil, Command{Kind: CommandOpenDetail, ProjectID: "p3"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	detail, err := env.svc.Dispatch(ctx, nil, Command{Kind: CommandOpenDetail, ProjectID: "p1"})
	require.NoError(t, err)
	assert.Empty(t, detail.InternalDescription)

	_, err = env.svc.Dispatch(ctx, u1, Command{Kind: "explode", ProjectID: "p2"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.svc.Dispatch(ctx, u1, Command{Kind: CommandToggleVisibility})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
