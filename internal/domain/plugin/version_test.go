package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustDescriptor(t *testing.T, b *DescriptorBuilder) *Descriptor {
	t.Helper()
	d, err := b.Build()
	require.NoError(t, err)
	return d
}

func TestParseVersion_AcceptsPartialVersions(t *testing.T) {
	for _, in := range []string{"1", "1.2", "1.2.3", "v1.2.3", " 2.0.0 "} {
		v, err := ParseVersion(in)
		require.NoError(t, err, in)
		require.NotNil(t, v)
	}
}

func TestParseVersion_Invalid(t *testing.T) {
	_, err := ParseVersion("not-a-version")
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestNewVersionReference_EmptyName(t *testing.T) {
	_, err := NewVersionReference("  ", ">=1.0")
	require.ErrorIs(t, err, ErrEmptyReferenceName)
}

func TestNewVersionReference_InvalidConstraint(t *testing.T) {
	_, err := NewVersionReference("core", ">>banana")
	require.ErrorIs(t, err, ErrInvalidConstraint)
}

func TestVersionReference_String(t *testing.T) {
	unbounded, err := NewVersionReference("core", "")
	require.NoError(t, err)
	require.Equal(t, "core", unbounded.String())

	ranged, err := NewVersionReference("core", ">=1.0")
	require.NoError(t, err)
	require.Equal(t, "core >=1.0", ranged.String())
}

func TestVersionReference_Check(t *testing.T) {
	core := mustDescriptor(t, NewDescriptorBuilder("core").Version("1.4.0"))
	versions := NewVersionMap()
	_, ok := versions.Claim(core)
	require.True(t, ok)

	tests := []struct {
		name       string
		ref        string
		constraint string
		wantMatch  bool
		wantFound  string
	}{
		{name: "any version", ref: "core", constraint: "", wantMatch: true, wantFound: "1.4.0"},
		{name: "star", ref: "core", constraint: "*", wantMatch: true, wantFound: "1.4.0"},
		{name: "satisfied range", ref: "core", constraint: ">=1.0", wantMatch: true, wantFound: "1.4.0"},
		{name: "unsatisfied range reports found version", ref: "core", constraint: ">=2.0", wantMatch: false, wantFound: "1.4.0"},
		{name: "caret", ref: "core", constraint: "^1.2", wantMatch: true, wantFound: "1.4.0"},
		{name: "absent identity", ref: "missing", constraint: ">=1.0", wantMatch: false, wantFound: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := NewVersionReference(tt.ref, tt.constraint)
			require.NoError(t, err)

			match, found := ref.Check(versions)
			require.Equal(t, tt.wantMatch, match)
			if tt.wantFound == "" {
				require.Nil(t, found)
			} else {
				require.NotNil(t, found)
				require.Equal(t, tt.wantFound, found.String())
			}
		})
	}
}

func TestVersionMap_ClaimIsAllOrNothing(t *testing.T) {
	a := mustDescriptor(t, NewDescriptorBuilder("a").Version("1.0").Provides("x", "1.0"))
	b := mustDescriptor(t, NewDescriptorBuilder("b").Version("1.0").Provides("y", "1.0").Provides("x", "2.0"))

	versions := NewVersionMap()
	_, ok := versions.Claim(a)
	require.True(t, ok)

	diag, ok := versions.Claim(b)
	require.False(t, ok)
	require.Equal(t, ReasonIdentityCollision, diag.Reason)
	require.Equal(t, "x", diag.Identity)
	require.Equal(t, "a", diag.Other)

	_, present := versions.Lookup("y")
	require.False(t, present, "no identity of a colliding plugin may be registered")
	require.Equal(t, []string{"a", "x"}, versions.Names())
}

func TestVersionMap_ClaimSameOwnerTwice(t *testing.T) {
	a := mustDescriptor(t, NewDescriptorBuilder("a").Version("1.0"))
	versions := NewVersionMap()

	_, ok := versions.Claim(a)
	require.True(t, ok)
	_, ok = versions.Claim(a)
	require.True(t, ok)
	require.Equal(t, 1, versions.Len())
}

func TestVersionMap_Release(t *testing.T) {
	a := mustDescriptor(t, NewDescriptorBuilder("a").Version("1.0").Provides("x", "1.0"))
	b := mustDescriptor(t, NewDescriptorBuilder("b").Version("1.0"))
	versions := NewVersionMap()
	versions.Claim(a)
	versions.Claim(b)

	removed := versions.Release(a)

	require.Equal(t, []string{"a", "x"}, removed)
	require.Equal(t, []string{"b"}, versions.Names())
	require.Nil(t, versions.Owner("x"))
	require.Same(t, b, versions.Owner("b"))
}
