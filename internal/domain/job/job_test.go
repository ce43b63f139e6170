package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "image", want: CategoryImage},
		{in: " PDF ", want: CategoryDocument},
		{in: "document", want: CategoryDocument},
		{in: "Video", want: CategoryVideo},
		{in: "audio", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_Set(t *testing.T) {
	var c Category
	require.NoError(t, c.Set("pdf"))
	assert.Equal(t, CategoryDocument, c)
	require.Error(t, c.Set("zip"))
	assert.Equal(t, CategoryDocument, c, "failed Set leaves value unchanged")
}

func TestNormalizeRemoteStatus(t *testing.T) {
	assert.Equal(t, RemotePending, NormalizeRemoteStatus("pending"))
	assert.Equal(t, RemoteProcessing, NormalizeRemoteStatus(" Processing\n"))
	assert.Equal(t, RemoteCompleted, NormalizeRemoteStatus("COMPLETED"))
	assert.Equal(t, RemoteFailed, NormalizeRemoteStatus("failed"))
}

func TestJob_Pollable(t *testing.T) {
	j := New(CategoryVideo)
	assert.Equal(t, StatusIdle, j.Status)
	assert.False(t, j.Pollable(), "no id yet")

	j.ID = "abc"
	j.Status = StatusProcessing
	assert.True(t, j.Pollable())

	j.Status = StatusCompleted
	assert.False(t, j.Pollable())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusUploading.IsTerminal())
}
