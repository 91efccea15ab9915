package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    RepoRef
		wantErr bool
	}{
		{name: "plain", url: "https://github.com/golang/example", want: RepoRef{"golang", "example"}},
		{name: "git suffix", url: "https://github.com/golang/example.git", want: RepoRef{"golang", "example"}},
		{name: "trailing slash", url: "https://github.com/golang/example/", want: RepoRef{"golang", "example"}},
		{name: "hyphenated", url: "https://github.com/my-org/my-repo", want: RepoRef{"my-org", "my-repo"}},
		{name: "dotted repo name", url: "https://github.com/golang/go.tools", want: RepoRef{"golang", "go.tools"}},

		{name: "not a url", url: "not-a-url", wantErr: true},
		{name: "empty", url: "", wantErr: true},
		{name: "http scheme", url: "http://github.com/golang/example", wantErr: true},
		{name: "other host", url: "https://gitlab.com/golang/example", wantErr: true},
		{name: "missing repo", url: "https://github.com/golang", wantErr: true},
		{name: "extra path segment", url: "https://github.com/golang/example/tree/main", wantErr: true},
		{name: "query string", url: "https://github.com/golang/example?tab=readme", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepoURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRepoURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepoRefString(t *testing.T) {
	ref := RepoRef{Owner: "golang", Name: "example"}
	assert.Equal(t, "golang/example", ref.String())
	assert.Equal(t, "https://github.com/golang/example.git", ref.CloneURL())
}
