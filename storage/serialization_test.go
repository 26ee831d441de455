package storage

import (
	"testing"
	"time"

	"github.com/poiesic/linkmind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("https://example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalLink(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	link := &core.Link{
		Id:           core.ID(7),
		URL:          "https://example.com/article",
		Title:        "An Article",
		Summary:      "- Something happened.\n- Then something else.",
		Tags:         []string{"news", "local"},
		Status:       core.StatusDone,
		FailedReason: "",
		AttemptCount: 2,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	data := MarshalLink(link)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalLink(data)
	require.NoError(t, err)
	assert.Equal(t, link, decoded)
}

func TestMarshalUnmarshalLink_MinimalFields(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	link := &core.Link{
		URL:       "https://example.com",
		Status:    core.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	decoded, err := UnmarshalLink(MarshalLink(link))
	require.NoError(t, err)
	assert.Equal(t, link.URL, decoded.URL)
	assert.Equal(t, core.StatusPending, decoded.Status)
	assert.Nil(t, decoded.Tags)
	assert.Empty(t, decoded.Summary)
}

func TestMarshalUnmarshalJob(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	job := &core.Job{
		LinkID:     core.ID(9),
		EnqueuedAt: now,
		VisibleAt:  now.Add(time.Minute),
		Claimed:    true,
		Deadline:   now.Add(2 * time.Minute),
	}

	decoded, err := UnmarshalJob(MarshalJob(job))
	require.NoError(t, err)
	assert.Equal(t, job, decoded)
}

func TestMarshalUnmarshalEmbedding(t *testing.T) {
	emb := &core.Embedding{
		LinkID: core.ID(3),
		Vector: []float32{0.1, -0.5, 0.99, 0},
	}

	decoded, err := UnmarshalEmbedding(MarshalEmbedding(emb))
	require.NoError(t, err)
	assert.Equal(t, emb, decoded)
}

func TestUnmarshalLink_Truncated(t *testing.T) {
	link := &core.Link{
		URL:    "https://example.com",
		Status: core.StatusPending,
	}
	data := MarshalLink(link)

	_, err := UnmarshalLink(data[:len(data)/2])
	assert.Error(t, err)
}
