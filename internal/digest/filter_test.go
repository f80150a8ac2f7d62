package digest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TrendWatch/internal/domain"
)

func TestFilterApply(t *testing.T) {
	t.Parallel()

	f := NewFilter([]string{" NBA ", "", "crypto"})
	items := []domain.Item{
		{Title: "Drake courtside at the NBA Finals"},
		{Title: "New Kendrick album announced"},
		{Title: "Rapper launches CryptoCoin"},
		{Title: "Tour dates revealed"},
	}

	out := f.Apply(items)

	require.Equal(t, []domain.Item{items[1], items[3]}, out)
}

func TestEmptyFilterKeepsEverything(t *testing.T) {
	t.Parallel()

	f := NewFilter(nil)
	require.True(t, f.Keep(domain.Item{Title: "anything"}))
}
