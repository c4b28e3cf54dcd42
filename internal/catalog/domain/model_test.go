package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectClone_IsDeep(t *testing.T) {
	p := Project{
		ID:             "p1",
		Images:         []ImageItem{{Src: "a", Audios: []string{"x"}}},
		InternalImages: []ImageItem{{Src: "b"}},
		Attachments:    []Attachment{{Name: "f.pdf"}},
	}

	c := p.Clone()
	c.Images[0].Src = "changed"
	c.Images[0].Audios[0] = "changed"
	c.InternalImages[0].Src = "changed"
	c.Attachments[0].Name = "changed"

	assert.Equal(t, "a", p.Images[0].Src)
	assert.Equal(t, "x", p.Images[0].Audios[0])
	assert.Equal(t, "b", p.InternalImages[0].Src)
	assert.Equal(t, "f.pdf", p.Attachments[0].Name)
}

func TestPublicProject_HasNoInternalKeys(t *testing.T) {
	p := Project{
		ID:                  "1",
		Name:                "张园",
		InternalDescription: "secret",
		InternalImages:      []ImageItem{{Src: "x"}},
		Attachments:         []Attachment{{Name: "a"}},
		CreatedBy:           "admin",
		CreatedByName:       "主管理员",
	}

	data, err := json.Marshal(p.Public())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"internalDescription", "internalImages", "attachments", "createdBy", "createdByName"} {
		assert.NotContains(t, fields, key)
	}
	assert.Equal(t, []any{}, fields["images"])
}

func TestProject_JSONRoundTripKeepsFileFormat(t *testing.T) {
	raw := `{"id":"p1","name":"成都文殊坊","city":"成都","type":"Commercial","label":"大名考察","lat":30.67,"lng":104.07,"isHidden":false,"publicDescription":"","images":[],"createdBy":"admin","createdByName":"主管理员"}`

	var p Project
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "成都", p.City)
	assert.Equal(t, "admin", p.CreatedBy)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
