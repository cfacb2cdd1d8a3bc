package pbxproj

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T) *Project {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "Runner.pbxproj"))
	require.NoError(t, err)
	manifest := filepath.Join(t.TempDir(), "project.pbxproj")
	require.NoError(t, os.WriteFile(manifest, data, 0o644))
	p, err := Open(manifest)
	require.NoError(t, err)
	return p
}

func openBytes(t *testing.T, doc string) *Project {
	t.Helper()
	manifest := filepath.Join(t.TempDir(), "project.pbxproj")
	require.NoError(t, os.WriteFile(manifest, []byte(doc), 0o644))
	p, err := Open(manifest)
	require.NoError(t, err)
	return p
}

func TestOpenGroupsSections(t *testing.T) {
	p := openFixture(t)

	refs := p.Section("PBXFileReference")
	assert.Equal(t, "sourcecode.swift",
		refs.GetObject("331C80D7294CF71000263BE5").GetString("lastKnownFileType"))
	assert.Equal(t, "AppDelegate.swift",
		refs.GetString(toCommentKey("331C80D7294CF71000263BE5")))

	group := p.groupByName("Frameworks")
	require.False(t, group.IsEmpty())
	assert.Equal(t, "PBXGroup", group.GetString("isa"))

	phase := p.buildPhaseByName("PBXFrameworksBuildPhase", "Frameworks")
	require.False(t, phase.IsEmpty())
	assert.Equal(t, 2147483647, phase.GetInt("buildActionMask"))
}

func TestRoundTripIsByteStable(t *testing.T) {
	p := openFixture(t)
	first, err := p.Bytes()
	require.NoError(t, err)

	reparsed := openBytes(t, string(first))
	second, err := reparsed.Bytes()
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(string(first), string(second)))
}

func TestBackupIsByteIdenticalToOriginal(t *testing.T) {
	p := openFixture(t)
	original, err := os.ReadFile(p.Path())
	require.NoError(t, err)

	_, err = p.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.NoError(t, err)

	backupPath, err := p.Backup()
	require.NoError(t, err)
	assert.Equal(t, p.Path()+".backup", backupPath)
	require.NoError(t, p.Write())

	backup, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(original, backup), "backup must keep the pre-patch bytes")

	patched, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	assert.False(t, bytes.Equal(original, patched))
}

func TestWriterInlinesBuildFileSettings(t *testing.T) {
	doc := `{
	objects = {
		FD11 /* libfoo.a in Frameworks */ = {isa = PBXBuildFile; fileRef = FD10 /* libfoo.a */; settings = {ATTRIBUTES = (Weak, Required, ); }; };
	};
}`
	p := openBytes(t, doc)
	out, err := p.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "settings = {ATTRIBUTES = (Weak,Required); }")
}

func TestDumpProducesJSON(t *testing.T) {
	p := openFixture(t)
	var buf bytes.Buffer
	require.NoError(t, p.Dump(&buf))
	assert.True(t, json.Valid(buf.Bytes()))
}

func TestGenerateUUIDAvoidsExistingKeys(t *testing.T) {
	p := openFixture(t)
	seen := map[string]struct{}{}
	for i := 0; i < 64; i++ {
		id := p.generateUUID()
		assert.Len(t, id, 24)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}
