package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		primary   string
		alternate string
		want      string
		ok        bool
	}{
		{name: "primary", primary: " https://a.example/x ", alternate: "https://b.example/y", want: "https://a.example/x", ok: true},
		{name: "fallback", primary: "", alternate: "https://b.example/y", want: "https://b.example/y", ok: true},
		{name: "relative primary", primary: "/x", alternate: "http://b.example/y", want: "http://b.example/y", ok: true},
		{name: "non url guid", primary: "", alternate: "tag:site,2026:123", ok: false},
		{name: "no host", primary: "https://", alternate: "", ok: false},
		{name: "ftp", primary: "ftp://a.example/x", alternate: "", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ResolveLink(tt.primary, tt.alternate)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSourceFetchErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("scan: %w", &SourceFetchError{Source: "@hiphop", Err: ErrCredentialMissing})
	require.True(t, errors.Is(err, ErrCredentialMissing))
	require.EqualError(t, err, "scan: source @hiphop: credential not configured")

	statusErr := &SourceFetchError{Source: "XXL", StatusCode: 503, Status: "503 Service Unavailable"}
	require.EqualError(t, statusErr, "source XXL: unexpected status 503 Service Unavailable")
}

func TestKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "feed", KindFeedPost.String())
	require.Equal(t, "social", KindSocialPost.String())
	require.Equal(t, "unknown", Kind(9).String())
}
