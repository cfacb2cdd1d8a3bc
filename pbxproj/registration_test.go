package pbxproj

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fipers/fipers-integrate/pbxparser"
)

func TestRecordIDIsDeterministic(t *testing.T) {
	// SHA1("libfipers.a_file_ref") / SHA1("libfipers.a_build_file"),
	// first 24 hex digits uppercased.
	assert.Equal(t, "30547B148C487C04BC4E818D", RecordID("libfipers.a", RoleFileRef))
	assert.Equal(t, "E6805C116B180748441DD57A", RecordID("libfipers.a", RoleBuildFile))

	assert.NotEqual(t, RecordID("libfipers.a", RoleFileRef), RecordID("libfipers.dylib", RoleFileRef))
	assert.NotEqual(t, RecordID("libssl.3.dylib", RoleFileRef), RecordID("libssl.3.dylib", RoleBuildFile))
}

func buildSettingsOf(t *testing.T, p *Project) []pbxparser.Object {
	t.Helper()
	var all []pbxparser.Object
	p.Section("XCBuildConfiguration").ForeachWithFilter(func(_ string, val interface{}) pbxparser.IterateActionType {
		config := toObject(val)
		if config.Has("buildSettings") {
			all = append(all, config.GetObject("buildSettings"))
		}
		return pbxparser.IterateActionContinue
	}, nonCommentsFilter)
	require.NotEmpty(t, all)
	return all
}

func TestRegisterArtifactAddsEverything(t *testing.T) {
	p := openFixture(t)

	reg, err := p.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.NoError(t, err)

	assert.False(t, reg.AlreadyPresent)
	assert.True(t, reg.AddedFileRef)
	assert.True(t, reg.AddedBuildFile)
	assert.True(t, reg.AddedToGroup)
	assert.True(t, reg.AddedToPhase)
	assert.True(t, reg.SettingsUpdated)
	assert.Equal(t, RecordID("libfipers.a", RoleFileRef), reg.FileRefID)
	assert.Equal(t, RecordID("libfipers.a", RoleBuildFile), reg.BuildFileID)

	ref := p.Section("PBXFileReference").GetObject(reg.FileRefID)
	require.False(t, ref.IsEmpty())
	assert.Equal(t, "archive.ar", ref.GetString("lastKnownFileType"))
	assert.Equal(t, "Frameworks/libfipers.a", ref.GetString("path"))
	assert.Equal(t, `"<group>"`, ref.GetString("sourceTree"))

	buildFile := p.Section("PBXBuildFile").GetObject(reg.BuildFileID)
	require.False(t, buildFile.IsEmpty())
	assert.Equal(t, reg.FileRefID, buildFile.GetString("fileRef"))
	assert.Equal(t, "libfipers.a in Frameworks",
		p.Section("PBXBuildFile").GetString(toCommentKey(reg.BuildFileID)))

	children := toValueList(p.groupByName("Frameworks").ForceGet("children"))
	assert.True(t, containsReference(children, reg.FileRefID))

	phase := p.buildPhaseByName("PBXFrameworksBuildPhase", "Frameworks")
	assert.True(t, containsReference(toValueList(phase.ForceGet("files")), reg.BuildFileID))

	for _, settings := range buildSettingsOf(t, p) {
		searchPaths := toValueList(settings.ForceGet("LIBRARY_SEARCH_PATHS"))
		assert.True(t, containsListValue(searchPaths, "$(inherited)"))
		assert.True(t, containsListValue(searchPaths, "$(PROJECT_DIR)/Frameworks"))

		ldflags := toValueList(settings.ForceGet("OTHER_LDFLAGS"))
		assert.True(t, containsListValue(ldflags, "$(inherited)"))
		assert.True(t, containsListValue(ldflags, "-force_load"))
		assert.True(t, containsListValue(ldflags, "$(PROJECT_DIR)/Frameworks/libfipers.a"))
	}
}

func TestRegisterArtifactIsIdempotent(t *testing.T) {
	p := openFixture(t)
	_, err := p.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.NoError(t, err)
	require.NoError(t, p.Write())
	first, err := os.ReadFile(p.Path())
	require.NoError(t, err)

	again, err := Open(p.Path())
	require.NoError(t, err)
	reg, err := again.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.NoError(t, err)

	assert.True(t, reg.AlreadyPresent)
	assert.False(t, reg.AddedFileRef)
	assert.False(t, reg.AddedBuildFile)
	assert.False(t, reg.AddedToGroup)
	assert.False(t, reg.AddedToPhase)
	assert.False(t, reg.SettingsUpdated)
	assert.Equal(t, RecordID("libfipers.a", RoleFileRef), reg.FileRefID)
	assert.Equal(t, RecordID("libfipers.a", RoleBuildFile), reg.BuildFileID)

	require.NoError(t, again.Write())
	second, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(string(first), string(second)))
}

// A configuration that already carries unrelated linker flags keeps them
// untouched and in order, with the force-load pair appended after.
func TestExistingLinkerFlagsSurviveInOrder(t *testing.T) {
	p := openFixture(t)
	_, err := p.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.NoError(t, err)

	release := p.Section("XCBuildConfiguration").GetObject("33CC10FA2044A3C60003C045")
	require.False(t, release.IsEmpty())

	ldflags := toValueList(release.GetObject("buildSettings").ForceGet("OTHER_LDFLAGS"))
	assert.Equal(t, []interface{}{
		`"$(inherited)"`,
		`"-ObjC"`,
		`"-force_load"`,
		`"$(PROJECT_DIR)/Frameworks/libfipers.a"`,
	}, ldflags)
}

func TestRegisterArtifactRepairsStrippedFlags(t *testing.T) {
	p := openFixture(t)
	_, err := p.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.NoError(t, err)

	// Simulate a later tool stripping the linker flags but leaving the
	// records in place.
	for _, settings := range buildSettingsOf(t, p) {
		settings.Delete("OTHER_LDFLAGS")
	}

	reg, err := p.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.NoError(t, err)
	assert.True(t, reg.AlreadyPresent)
	assert.False(t, reg.AddedFileRef)
	assert.True(t, reg.SettingsUpdated)

	for _, settings := range buildSettingsOf(t, p) {
		ldflags := toValueList(settings.ForceGet("OTHER_LDFLAGS"))
		assert.True(t, containsListValue(ldflags, "-force_load"))
		assert.True(t, containsListValue(ldflags, "$(PROJECT_DIR)/Frameworks/libfipers.a"))
	}
}

func TestRegisterDynamicLibraryJoinsCopyPhase(t *testing.T) {
	p := openFixture(t)

	// group-relative manifest path, the way the macOS workflow registers
	reg, err := p.RegisterArtifact(ArtifactSpec{
		Name: "libssl.3.dylib",
		Kind: DynamicLibrary,
		Path: "../Frameworks/libssl.3.dylib",
	})
	require.NoError(t, err)
	assert.True(t, reg.AddedToPhase)

	ref := p.Section("PBXFileReference").GetObject(reg.FileRefID)
	assert.Equal(t, `"compiled.mach-o.dylib"`, ref.GetString("lastKnownFileType"))
	assert.Equal(t, `"../Frameworks/libssl.3.dylib"`, ref.GetString("path"))

	phase := p.buildPhaseByName("PBXCopyFilesBuildPhase", "Bundle Framework")
	assert.True(t, containsReference(toValueList(phase.ForceGet("files")), reg.BuildFileID))
	assert.Equal(t, "libssl.3.dylib in Bundle Framework",
		p.Section("PBXBuildFile").GetString(toCommentKey(reg.BuildFileID)))
}

// The forced-load directive must point at the copied artifact, which
// lives under the linker search path, not at the group-relative manifest
// path (which would resolve to a location nothing was copied to).
func TestForceLoadPathMatchesSearchPath(t *testing.T) {
	p := openFixture(t)

	_, err := p.RegisterArtifact(ArtifactSpec{
		Name: "libfipers.dylib",
		Kind: DynamicLibrary,
		Path: "../Frameworks/libfipers.dylib",
	})
	require.NoError(t, err)

	for _, settings := range buildSettingsOf(t, p) {
		searchPaths := toValueList(settings.ForceGet("LIBRARY_SEARCH_PATHS"))
		assert.True(t, containsListValue(searchPaths, "$(PROJECT_DIR)/Frameworks"))

		ldflags := toValueList(settings.ForceGet("OTHER_LDFLAGS"))
		assert.True(t, containsListValue(ldflags, "$(PROJECT_DIR)/Frameworks/libfipers.dylib"))
		assert.False(t, containsListValue(ldflags, "$(PROJECT_DIR)/../Frameworks/libfipers.dylib"))
	}
}

func TestRegisterArtifactsUseDistinctIdentifiers(t *testing.T) {
	p := openFixture(t)
	a, err := p.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.NoError(t, err)
	b, err := p.RegisterArtifact(ArtifactSpec{Name: "libcrypto.3.dylib", Kind: DynamicLibrary})
	require.NoError(t, err)

	ids := map[string]struct{}{
		a.FileRefID: {}, a.BuildFileID: {},
		b.FileRefID: {}, b.BuildFileID: {},
	}
	assert.Len(t, ids, 4)
}

func TestRegisterArtifactSurfacesMissingPieces(t *testing.T) {
	doc := "// !$*UTF8*$!\n{\n\tobjects = {\n\t};\n\trootObject = AAA;\n}\n"
	p := openBytes(t, doc)

	reg, err := p.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGroupMissing))
	assert.True(t, errors.Is(err, ErrPhaseMissing))
	assert.True(t, errors.Is(err, ErrNoBuildConfigurations))

	// The record-insertion steps still ran; only the broken ones skipped.
	assert.True(t, reg.AddedFileRef)
	assert.True(t, reg.AddedBuildFile)
	assert.False(t, reg.AddedToGroup)
	assert.False(t, reg.AddedToPhase)
	assert.False(t, reg.SettingsUpdated)

	out, err := p.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "/* Begin PBXFileReference section */")
	assert.Contains(t, string(out), "/* Begin PBXBuildFile section */")
	assert.NotContains(t, string(out), "/* Begin PBXGroup section */")
}

func TestRegisterArtifactFallsBackOnIdentifierCollision(t *testing.T) {
	p := openFixture(t)

	taken := RecordID("libfipers.a", RoleFileRef)
	foreign := pbxparser.NewObjectWithData([]pbxparser.ObjectItem{
		pbxparser.NewObjectItem("isa", "PBXSourcesBuildPhase"),
		pbxparser.NewObjectItem("files", []interface{}{}),
	})
	p.ensureSection("PBXSourcesBuildPhase").Set(taken, foreign)
	p.uuids[taken] = struct{}{}

	reg, err := p.RegisterArtifact(ArtifactSpec{Name: "libfipers.a", Kind: StaticArchive})
	require.NoError(t, err)
	assert.NotEqual(t, taken, reg.FileRefID)
	assert.Len(t, reg.FileRefID, 24)
	assert.Equal(t, "PBXSourcesBuildPhase",
		p.Section("PBXSourcesBuildPhase").GetObject(taken).GetString("isa"))
}

func TestAppendToShellScriptPhase(t *testing.T) {
	p := openFixture(t)
	fragment := "# Fix OpenSSL rpath\ninstall_name_tool -add_rpath \"@loader_path/../Frameworks\" \"$TARGET\""

	added, err := p.AppendToShellScriptPhase("ShellScript", "Fix OpenSSL rpath", fragment)
	require.NoError(t, err)
	assert.True(t, added)

	script := p.buildPhaseByName("PBXShellScriptBuildPhase", "ShellScript").GetString("shellScript")
	assert.Contains(t, script, `echo \"$PRODUCT_NAME\"`)
	assert.Contains(t, script, `# Fix OpenSSL rpath\ninstall_name_tool`)
	assert.True(t, strings.HasPrefix(script, `"`))
	assert.True(t, strings.HasSuffix(script, `"`))

	added, err = p.AppendToShellScriptPhase("ShellScript", "Fix OpenSSL rpath", fragment)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = p.AppendToShellScriptPhase("No Such Phase", "x", "y")
	assert.True(t, errors.Is(err, ErrPhaseMissing))
}
