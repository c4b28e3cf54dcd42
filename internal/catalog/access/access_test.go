package access

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

var (
	admin   = &domain.User{ID: "admin", Role: domain.RoleAdmin}
	editor  = &domain.User{ID: "user1", Role: domain.RoleEditor}
	other   = &domain.User{ID: "user2", Role: domain.RoleEditor}
	unknown = &domain.User{ID: "user3", Role: "auditor"}
)

func TestCanSeeInternal_FourCombinations(t *testing.T) {
	p := domain.Project{ID: "p1", CreatedBy: "user1"}

	tests := []struct {
		name   string
		viewer *domain.User
		want   bool
	}{
		{"admin", admin, true},
		{"creator editor", editor, true},
		{"guest", nil, false},
		{"unrelated editor", other, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanSeeInternal(p, tt.viewer))
			assert.Equal(t, tt.want, CanEdit(p, tt.viewer))
		})
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	p := domain.Project{ID: "p1", CreatedBy: "user3", IsHidden: true}

	assert.False(t, CanEdit(p, unknown))
	assert.False(t, CanSeeInternal(p, unknown))
	assert.False(t, Visible(p, unknown))
	assert.False(t, HasWriteAccess(unknown))
	assert.Empty(t, Exportable([]domain.Project{p}, unknown))
}

func TestEditorWithoutOwnershipMarker(t *testing.T) {
	p := domain.Project{ID: "legacy"}
	assert.False(t, CanEdit(p, &domain.User{ID: "", Role: domain.RoleEditor}))
}

func TestVisibility(t *testing.T) {
	hidden := domain.Project{ID: "h", IsHidden: true}
	shown := domain.Project{ID: "s"}

	assert.False(t, Visible(hidden, nil))
	assert.True(t, Visible(hidden, editor))
	assert.True(t, Visible(hidden, admin))
	assert.True(t, Visible(shown, nil))

	assert.Equal(t, HiddenOpacity, Opacity(hidden, editor))
	assert.Equal(t, 1.0, Opacity(shown, editor))

	got := VisibleTo([]domain.Project{hidden, shown}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "s", got[0].ID)
}

func TestExportable(t *testing.T) {
	projects := []domain.Project{
		{ID: "a", CreatedBy: "admin"},
		{ID: "b", CreatedBy: "user1"},
		{ID: "c", CreatedBy: "user2"},
	}

	assert.Len(t, Exportable(projects, admin), 3)

	own := Exportable(projects, editor)
	require.Len(t, own, 1)
	assert.Equal(t, "b", own[0].ID)

	assert.Empty(t, Exportable(projects, nil))
}

func TestForViewer(t *testing.T) {
	p := domain.Project{
		ID:                  "p1",
		CreatedBy:           "user1",
		InternalDescription: "secret",
		Attachments:         []domain.Attachment{{Name: "a"}},
	}

	assert.Equal(t, "secret", ForViewer(p, editor).InternalDescription)

	stripped := ForViewer(p, other)
	assert.Empty(t, stripped.InternalDescription)
	assert.Nil(t, stripped.Attachments)
	assert.Equal(t, "secret", p.InternalDescription, "original untouched")
	assert.Equal(t, "user1", stripped.CreatedBy, "editors still see authorship")

	p.CreatedByName = "编辑一"
	for _, viewer := range []*domain.User{nil, unknown} {
		guest := ForViewer(p, viewer)
		assert.Empty(t, guest.InternalDescription)
		assert.Empty(t, guest.CreatedBy)
		assert.Empty(t, guest.CreatedByName)

		data, err := json.Marshal(guest)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "createdBy")
	}
	assert.Equal(t, "user1", p.CreatedBy, "original untouched")
}

func TestRedact_GuestSnapshotHasNoInternalKeys(t *testing.T) {
	projects := []domain.Project{
		{
			ID:                  "1",
			Name:                "张园",
			InternalDescription: "secret",
			InternalImages:      []domain.ImageItem{{Src: "x"}},
			Attachments:         []domain.Attachment{{Name: "a"}},
			CreatedBy:           "admin",
			CreatedByName:       "主管理员",
		},
		{ID: "2", IsHidden: true},
	}

	redacted := Redact(projects)
	require.Len(t, redacted, 1, "hidden projects are not exported to guests")

	data, err := json.Marshal(redacted)
	require.NoError(t, err)
	for _, key := range []string{"internalDescription", "internalImages", "attachments", "createdBy", "createdByName"} {
		assert.NotContains(t, string(data), `"`+key+`"`)
	}
}

func TestValidPermission(t *testing.T) {
	assert.True(t, ValidPermission("admin"))
	assert.True(t, ValidPermission("guest"))
	assert.False(t, ValidPermission("editor"))
	assert.False(t, ValidPermission(""))
}
