package theme

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/mattjoyce/themedeploy/internal/theme/mocks"
)

func TestResolveChain_WalksToRoot(t *testing.T) {
	reg := StaticRegistry{
		"Child/a": "Mid/b",
		"Mid/b":   "Hyva/default",
	}
	r := NewResolver(reg, DefaultMaxDepth)

	chain := r.ResolveChain(context.Background(), "Child/a")

	assert.Equal(t, Chain{"Child/a", "Mid/b", "Hyva/default"}, chain)
	assert.Equal(t, "Child/a", chain.Theme())
	assert.Equal(t, "Hyva/default", chain.Root())
}

func TestResolveChain_LengthUpToCeiling(t *testing.T) {
	for l := 1; l <= DefaultMaxDepth; l++ {
		t.Run(fmt.Sprintf("len=%d", l), func(t *testing.T) {
			r := NewResolver(linearRegistry(l), DefaultMaxDepth)
			chain := r.ResolveChain(context.Background(), "T0")
			assert.Len(t, chain, l)
			assert.Equal(t, "T0", chain.Theme())
			assert.Equal(t, fmt.Sprintf("T%d", l-1), chain.Root())
		})
	}
}

func TestResolveChain_TruncatesAtCeiling(t *testing.T) {
	r := NewResolver(linearRegistry(25), DefaultMaxDepth)
	chain := r.ResolveChain(context.Background(), "T0")
	assert.Len(t, chain, DefaultMaxDepth)
	assert.Equal(t, "T9", chain.Root())
}

func TestResolveChain_CycleTerminates(t *testing.T) {
	reg := StaticRegistry{
		"A": "B",
		"B": "C",
		"C": "A",
	}
	r := NewResolver(reg, DefaultMaxDepth)
	chain := r.ResolveChain(context.Background(), "A")
	assert.Equal(t, Chain{"A", "B", "C"}, chain)
}

func TestResolveChain_SelfParent(t *testing.T) {
	r := NewResolver(StaticRegistry{"A": "A"}, DefaultMaxDepth)
	assert.Equal(t, Chain{"A"}, r.ResolveChain(context.Background(), "A"))
}

func TestResolveChain_UnknownThemeIsRoot(t *testing.T) {
	r := NewResolver(StaticRegistry{}, DefaultMaxDepth)
	assert.Equal(t, Chain{"Vendor/solo"}, r.ResolveChain(context.Background(), "Vendor/solo"))
}

func TestResolveChain_LookupFailures(t *testing.T) {
	base := StaticRegistry{
		"Child/a": "Mid/b",
		"Mid/b":   "Root/c",
	}

	t.Run("first lookup", func(t *testing.T) {
		reg := failingRegistry{next: base, fail: map[string]bool{"Child/a": true}}
		chain := NewResolver(reg, DefaultMaxDepth).ResolveChain(context.Background(), "Child/a")
		assert.Equal(t, Chain{"Child/a"}, chain)
	})

	t.Run("mid traversal", func(t *testing.T) {
		reg := failingRegistry{next: base, fail: map[string]bool{"Mid/b": true}}
		chain := NewResolver(reg, DefaultMaxDepth).ResolveChain(context.Background(), "Child/a")
		assert.Equal(t, Chain{"Child/a", "Mid/b"}, chain)
	})
}

func TestResolveChain_StopsQueryingAtCeiling(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := mocks.NewMockRegistry(ctrl)
	reg.EXPECT().LookupParent(gomock.Any(), "T0").Return("T1", true, nil).Times(1)
	reg.EXPECT().LookupParent(gomock.Any(), "T1").Return("T2", true, nil).Times(1)

	chain := NewResolver(reg, 3).ResolveChain(context.Background(), "T0")
	assert.Equal(t, Chain{"T0", "T1", "T2"}, chain)
}

func TestResolveChain_MockedFailureMidWalk(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := mocks.NewMockRegistry(ctrl)
	gomock.InOrder(
		reg.EXPECT().LookupParent(gomock.Any(), "Luma/child").Return("Magento/luma", true, nil),
		reg.EXPECT().LookupParent(gomock.Any(), "Magento/luma").Return("", false, errors.New("deadlock")),
	)

	chain := NewResolver(reg, DefaultMaxDepth).ResolveChain(context.Background(), "Luma/child")
	assert.Equal(t, Chain{"Luma/child", "Magento/luma"}, chain)
}

func TestNewResolver_DefaultDepth(t *testing.T) {
	assert.Equal(t, DefaultMaxDepth, NewResolver(StaticRegistry{}, 0).MaxDepth())
	assert.Equal(t, 4, NewResolver(StaticRegistry{}, 4).MaxDepth())
}

func TestResolveAll_KeepsRequestOrder(t *testing.T) {
	reg := StaticRegistry{"A": "Root", "B": "Root"}
	chains := NewResolver(reg, DefaultMaxDepth).ResolveAll(context.Background(), []string{"B", "A"})
	assert.Equal(t, []Chain{{"B", "Root"}, {"A", "Root"}}, chains)
}

func TestWalkEndString(t *testing.T) {
	assert.Equal(t, "max_depth", endDepth.String())
	assert.Equal(t, "lookup_failed", endFailed.String())
	assert.Equal(t, "unknown", walkEnd(99).String())
}
