package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
)

func ptr[T any](v T) *T { return &v }

var (
	tCreated = time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	tUpdated = time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)
)

func TestProjectRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   models.Project
	}{
		{
			name: "all fields set",
			in: models.Project{
				ID:           "p1",
				Title:        "Epic Fantasy",
				Description:  ptr("a long tale"),
				Tags:         []string{"fantasy", "action"},
				CoverImageID: ptr("img-9"),
				Archived:     true,
				CreatedAt:    tCreated,
				UpdatedAt:    tUpdated,
			},
		},
		{
			name: "optional fields absent, empty tags",
			in: models.Project{
				ID:        "p2",
				Title:     "Bare",
				Tags:      []string{},
				CreatedAt: tCreated,
				UpdatedAt:  tUpdated,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeProject(&tt.in)
			require.NoError(t, err)
			out, err := DecodeProject(data)
			require.NoError(t, err)
			assert.Equal(t, &tt.in, out)
		})
	}
}

func TestCharacterRoundTrip(t *testing.T) {
	in := models.Character{
		ID:        "c1",
		ProjectID: "p1",
		Name:      "Hero",
		Profile: models.Profile{
			Age:         ptr(27),
			Role:        ptr("protagonist"),
			Personality: []string{"brave", "loyal"},
			Backstory:   ptr("grew up in the mountains"),
		},
		Canvas: models.CanvasState{
			Zoom:    1.5,
			OffsetX: 10,
			OffsetY: -4.25,
			Items: []models.CanvasItem{
				{ID: "ci1", ImageID: "img-1", X: 1, Y: 2, Width: 100, Height: 80, Rotation: 15, ZIndex: 1},
				{ID: "ci2", ImageID: "img-2", X: 3, Y: 4, Width: 50, Height: 50, ZIndex: 2},
			},
		},
		CreatedAt: tCreated,
		UpdatedAt: tUpdated,
	}
	sections := []models.SectionWithItems{
		{
			Section: models.Section{ID: "s1", CharacterID: "c1", Title: "faces", Position: 0, Collapsed: false, CreatedAt: tCreated, UpdatedAt: tUpdated},
			Items: []models.SectionItem{
				{ID: "si1", SectionID: "s1", ImageID: "img-1", X: 5, Y: 6, Width: 40, Height: 40, Rotation: 0, ZIndex: 0},
			},
		},
		{
			Section: models.Section{ID: "s2", CharacterID: "c1", Title: "outfits", Position: 1, Collapsed: true, CreatedAt: tCreated, UpdatedAt: tUpdated},
		},
	}

	data, err := EncodeCharacter(&in, sections)
	require.NoError(t, err)

	out, outSections, err := DecodeCharacter(data)
	require.NoError(t, err)
	assert.Equal(t, &in, out)
	assert.Equal(t, sections, outSections)
}

func TestCharacterRoundTrip_Minimal(t *testing.T) {
	in := models.Character{
		ID:        "c2",
		ProjectID: "p1",
		Name:      "Extra",
		Profile:   models.Profile{Personality: []string{}},
		Canvas:    models.CanvasState{},
		CreatedAt: tCreated,
		UpdatedAt: tUpdated,
	}
	data, err := EncodeCharacter(&in, nil)
	require.NoError(t, err)

	out, sections, err := DecodeCharacter(data)
	require.NoError(t, err)
	assert.Equal(t, &in, out)
	assert.Nil(t, sections)
}

func TestImageRoundTrip_StripsLocalOnlyFields(t *testing.T) {
	in := models.MoodboardImage{
		ID:            "img-1",
		CharacterID:   "c1",
		FileName:      "ref.webp",
		MimeType:      "image/webp",
		Width:         1024,
		Height:        768,
		SizeBytes:     54321,
		Palette:       []string{"#101010", "#fefefe"},
		Position:      3,
		StoragePath:   "/data/blobs/images/img-1",
		ThumbnailPath: "/data/blobs/thumbnails/img-1",
		CreatedAt:     tCreated,
		UpdatedAt:     tUpdated,
	}

	data, err := EncodeImage(&in)
	require.NoError(t, err)

	payload := string(data)
	assert.NotContains(t, payload, "storagePath")
	assert.NotContains(t, payload, "thumbnailPath")
	assert.NotContains(t, payload, in.StoragePath)

	out, err := DecodeImage(data)
	require.NoError(t, err)

	// everything except the local-only paths survives
	want := in
	want.StoragePath = ""
	want.ThumbnailPath = ""
	assert.Equal(t, &want, out)
}

type fakeBlobs struct{ saved map[string][]byte }

func (f *fakeBlobs) SaveImage(id string, data []byte) (string, error) {
	f.saved["img:"+id] = data
	return "/blobs/images/" + id, nil
}

func (f *fakeBlobs) SaveThumbnail(id string, data []byte) (string, error) {
	f.saved["thumb:"+id] = data
	return "/blobs/thumbnails/" + id, nil
}

func TestMaterialize_SetsPathsContainingID(t *testing.T) {
	img := &models.MoodboardImage{ID: "img-7"}
	blobs := &fakeBlobs{saved: map[string][]byte{}}

	require.NoError(t, Materialize(img, blobs, []byte("pixels"), []byte("tiny")))

	assert.Contains(t, img.StoragePath, "img-7")
	assert.Contains(t, img.ThumbnailPath, "img-7")
	assert.Equal(t, []byte("pixels"), blobs.saved["img:img-7"])
	assert.Equal(t, []byte("tiny"), blobs.saved["thumb:img-7"])
}

func TestEditionAndPageRoundTrip(t *testing.T) {
	ed := models.Edition{
		ID: "e1", ProjectID: "p1", Title: "Issue #1",
		Format: ptr("A4"), Synopsis: ptr("the beginning"),
		CreatedAt: tCreated, UpdatedAt: tUpdated,
	}
	data, err := EncodeEdition(&ed)
	require.NoError(t, err)
	outEd, err := DecodeEdition(data)
	require.NoError(t, err)
	assert.Equal(t, &ed, outEd)

	pg := models.ScriptPage{
		ID: "sp1", EditionID: "e1", PageNumber: 4,
		CreatedAt: tCreated, UpdatedAt: tUpdated,
	}
	data, err = EncodeScriptPage(&pg)
	require.NoError(t, err)
	outPg, err := DecodeScriptPage(data)
	require.NoError(t, err)
	assert.Equal(t, &pg, outPg)
}

func TestPanelRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   models.Panel
	}{
		{
			name: "dialogues populated",
			in: models.Panel{
				ID: "pn1", PageID: "sp1", Position: 1,
				Description: "wide shot of the valley",
				CameraAngle: ptr("birds-eye"),
				SketchImageID: ptr("img-3"),
				Dialogues: []models.PanelDialogue{
					{Speaker: "Hero", CharacterID: ptr("c1"), Text: "We made it.", Style: ptr("shout")},
					{Speaker: "Narrator", Text: "They had not made it."},
				},
				CreatedAt: tCreated, UpdatedAt: tUpdated,
			},
		},
		{
			name: "no dialogues",
			in: models.Panel{
				ID: "pn2", PageID: "sp1", Position: 2,
				Description: "silence",
				Dialogues:   []models.PanelDialogue{},
				CreatedAt:   tCreated, UpdatedAt: tUpdated,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePanel(&tt.in)
			require.NoError(t, err)
			out, err := DecodePanel(data)
			require.NoError(t, err)
			assert.Equal(t, &tt.in, out)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeProject([]byte(`{`))
	assert.Error(t, err)

	_, err = DecodeProject([]byte(`{"id":"p1","createdAt":"not-a-date","updatedAt":"also-not"}`))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bad instant"))
}

func TestHash(t *testing.T) {
	a, err := EncodeProject(&models.Project{ID: "p1", Title: "A", CreatedAt: tCreated, UpdatedAt: tUpdated})
	require.NoError(t, err)
	b, err := EncodeProject(&models.Project{ID: "p1", Title: "A", CreatedAt: tCreated, UpdatedAt: tUpdated})
	require.NoError(t, err)
	c, err := EncodeProject(&models.Project{ID: "p1", Title: "B", CreatedAt: tCreated, UpdatedAt: tUpdated})
	require.NoError(t, err)

	assert.Equal(t, Hash(a), Hash(b))
	assert.NotEqual(t, Hash(a), Hash(c))
	assert.Len(t, Hash(a), 64)
}
