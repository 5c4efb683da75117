package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// IdentifierSuite tests store key construction.
//
// Justification: a key that mixes classes or clients would let one caller
// spend another's quota.
type IdentifierSuite struct {
	suite.Suite
}

func TestIdentifierSuite(t *testing.T) {
	suite.Run(t, new(IdentifierSuite))
}

func (s *IdentifierSuite) TestNewIdentifier() {
	s.Equal("contact:203.0.113.7", NewIdentifier("contact", "203.0.113.7"))
	s.Equal("chat:2001:db8::1", NewIdentifier("chat", "2001:db8::1"))
}

func (s *IdentifierSuite) TestEmptyClientBecomesUnknown() {
	s.Equal("login:unknown", NewIdentifier("login", ""))
	s.Equal("login:unknown", NewIdentifier("login", "   "))
}

func (s *IdentifierSuite) TestEndpointsNeverShareKeys() {
	s.NotEqual(NewIdentifier("contact", "10.0.0.1"), NewIdentifier("partners", "10.0.0.1"))
}

func (s *IdentifierSuite) TestValidEndpoint() {
	s.True(ValidEndpoint("content_detail"))
	s.False(ValidEndpoint(""))
	s.False(ValidEndpoint("api:contact"))
	s.False(ValidEndpoint("contact form"))
}

func (s *IdentifierSuite) TestPolicyValidate() {
	s.NoError(Policy{MaxRequests: 5, Window: 15 * time.Minute}.Validate())
	s.Error(Policy{MaxRequests: 0, Window: time.Minute}.Validate())
	s.Error(Policy{MaxRequests: 5}.Validate())
	s.Equal("5/15m0s", Policy{MaxRequests: 5, Window: 15 * time.Minute}.String())
}

func (s *IdentifierSuite) TestClassValidity() {
	for _, c := range Classes {
		s.True(c.IsValid(), c)
	}
	s.False(EndpointClass("write").IsValid())
}
