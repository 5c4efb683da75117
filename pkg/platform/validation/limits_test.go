package validation

import (
	"strings"
	"testing"

	dErrors "arq/pkg/domain-errors"

	"github.com/stretchr/testify/suite"
)

// LimitsSuite tests the validation helper functions.
//
// Justification: these guard public form endpoints; "max+1 must fail" and
// "max must pass" are the boundaries every handler relies on.
type LimitsSuite struct {
	suite.Suite
}

func TestLimitsSuite(t *testing.T) {
	suite.Run(t, new(LimitsSuite))
}

func (s *LimitsSuite) TestCheckSliceCount() {
	s.Run("passes when count equals max", func() {
		s.NoError(CheckSliceCount("keywords", MaxKeywords, MaxKeywords))
	})

	s.Run("passes when count is zero", func() {
		s.NoError(CheckSliceCount("keywords", 0, MaxKeywords))
	})

	s.Run("fails when count exceeds max", func() {
		err := CheckSliceCount("keywords", MaxKeywords+1, MaxKeywords)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "too many keywords")
		s.Contains(err.Error(), "max 20 allowed")
	})
}

func (s *LimitsSuite) TestCheckStringLength() {
	s.Run("passes when length equals max", func() {
		s.NoError(CheckStringLength("keyword", strings.Repeat("a", 100), 100))
	})

	s.Run("passes for empty string", func() {
		s.NoError(CheckStringLength("keyword", "", 100))
	})

	s.Run("fails when length exceeds max", func() {
		err := CheckStringLength("keyword", strings.Repeat("a", 101), 100)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "keyword exceeds max length of 100")
	})
}

func (s *LimitsSuite) TestCheckEachStringLength() {
	s.Run("passes when all elements are within limit", func() {
		values := []string{"seo", "growth marketing", strings.Repeat("a", 100)}
		s.NoError(CheckEachStringLength("keywords", values, 100))
	})

	s.Run("passes for nil slice", func() {
		s.NoError(CheckEachStringLength("keywords", nil, 100))
	})

	s.Run("fails when any element exceeds max", func() {
		values := []string{"seo", strings.Repeat("a", 101)}
		err := CheckEachStringLength("keywords", values, 100)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
