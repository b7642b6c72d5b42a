package progression

import (
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/types"
)

// Re-export common types for convenience so users don't have to import the
// subpackages for simple calls.

// Money is re-exported from types package.
type Money = types.Money

// Kind is re-exported from catalog package.
type Kind = catalog.Kind

// Re-export catalog kinds
const (
	KindLesson = catalog.KindLesson
	KindCourse = catalog.KindCourse
	KindPack   = catalog.KindPack
)

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	JPY  = types.JPY
	Zero = types.Zero
)
