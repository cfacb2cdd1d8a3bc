/**
Licensed to the Apache Software Foundation (ASF) under one
or more contributor license agreements.  See the NOTICE file
distributed with this work for additional information
regarding copyright ownership.  The ASF licenses this file
to you under the Apache License, Version 2.0 (the
'License'); you may not use this file except in compliance
with the License.  You may obtain a copy of the License at
http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing,
software distributed under the License is distributed on an
'AS IS' BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
KIND, either express or implied.  See the License for the
specific language governing permissions and limitations
under the License.
*/

package pbxproj

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/fipers/fipers-integrate/pbxparser"
)

var (
	// ErrGroupMissing reports that the logical group an artifact should
	// join does not exist in the manifest.
	ErrGroupMissing = errors.New("logical group not found")
	// ErrPhaseMissing reports that the named build phase does not exist.
	ErrPhaseMissing = errors.New("build phase not found")
	// ErrNoBuildConfigurations reports that no build configuration carries
	// a buildSettings block, so linker flags had nowhere to go.
	ErrNoBuildConfigurations = errors.New("no build configurations with settings")
)

// Identifier roles for RecordID.
const (
	RoleFileRef   = "file_ref"
	RoleBuildFile = "build_file"
)

const inherited = "$(inherited)"

// RecordID derives the manifest identifier for an artifact record: the
// first 24 hex digits of SHA-1 over "<name>_<role>", uppercased. The
// same artifact name always yields the same identifiers, so re-running a
// registration finds its own records instead of minting new ones.
func RecordID(name, role string) string {
	sum := sha1.Sum([]byte(name + "_" + role))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:24]
}

// ArtifactSpec describes a prebuilt library to register with the project.
type ArtifactSpec struct {
	// Name is the library file name, e.g. "libfipers.a".
	Name string
	// Kind selects file type and default build phase.
	Kind ArtifactKind
	// Path is the project-relative location of the copied artifact,
	// e.g. "Frameworks/libfipers.a". Defaults to "Frameworks/<Name>".
	Path string
	// Group is the logical group the file reference joins. Defaults to
	// "Frameworks".
	Group string
	// Phase names the build phase the build file joins, matched against
	// the phase comment. Defaults per kind: "Frameworks" for archives,
	// "Bundle Framework" for dynamic libraries.
	Phase string
	// SearchPathDir is the LIBRARY_SEARCH_PATHS entry. Defaults to
	// "$(PROJECT_DIR)/Frameworks".
	SearchPathDir string
	// LoadPath is the argument to -force_load in OTHER_LDFLAGS. Defaults
	// to "<SearchPathDir>/<Name>", the copied artifact's location at
	// link time. Path is group-relative and has no say here.
	LoadPath string
}

func (s ArtifactSpec) withDefaults() ArtifactSpec {
	if s.Path == "" {
		s.Path = "Frameworks/" + s.Name
	}
	if s.Group == "" {
		s.Group = "Frameworks"
	}
	if s.Phase == "" {
		s.Phase = s.Kind.defaultPhase()
	}
	if s.SearchPathDir == "" {
		s.SearchPathDir = "$(PROJECT_DIR)/Frameworks"
	}
	if s.LoadPath == "" {
		s.LoadPath = s.SearchPathDir + "/" + s.Name
	}
	return s
}

// Registration reports what RegisterArtifact changed. On a re-run over an
// already-patched manifest every Added* field is false.
type Registration struct {
	FileRefID       string
	BuildFileID     string
	AlreadyPresent  bool
	AddedFileRef    bool
	AddedBuildFile  bool
	AddedToGroup    bool
	AddedToPhase    bool
	SettingsUpdated bool
}

// RegisterArtifact splices a prebuilt library into the project: a file
// reference, a build file, group membership, build-phase membership and
// the linker settings that make the artifact findable and fully loaded.
//
// The operation is idempotent. When the file reference already exists the
// record-insertion steps are skipped and only the linker settings are
// repaired; the two halves are independently re-runnable. A missing
// group, phase or settings block skips just that step and accumulates a
// named error, so one broken assumption does not mask another.
func (p *Project) RegisterArtifact(spec ArtifactSpec) (*Registration, error) {
	spec = spec.withDefaults()
	reg := &Registration{}
	var errs *multierror.Error

	fileRefID, found := p.findFileReference(spec)
	reg.AlreadyPresent = found

	if found {
		reg.FileRefID = fileRefID
		reg.BuildFileID, _ = p.findBuildFile(fileRefID)
	} else {
		reg.FileRefID = p.claimRecordID(spec.Name, RoleFileRef)
		reg.BuildFileID = p.claimRecordID(spec.Name, RoleBuildFile)

		p.addFileReference(reg.FileRefID, spec)
		reg.AddedFileRef = true
		p.addBuildFile(reg.BuildFileID, reg.FileRefID, spec)
		reg.AddedBuildFile = true

		if err := p.addToGroup(spec.Group, reg.FileRefID, spec.Name); err != nil {
			errs = multierror.Append(errs, err)
		} else {
			reg.AddedToGroup = true
		}
		if err := p.addToPhase(spec, reg.BuildFileID); err != nil {
			errs = multierror.Append(errs, err)
		} else {
			reg.AddedToPhase = true
		}
	}

	updated, err := p.ensureLinkerSettings(spec)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	reg.SettingsUpdated = updated

	return reg, errs.ErrorOrNil()
}

// claimRecordID returns the deterministic identifier for name/role,
// falling back to a fresh random one when a foreign record already
// occupies it.
func (p *Project) claimRecordID(name, role string) string {
	id := RecordID(name, role)
	if _, taken := p.uuids[id]; taken {
		return p.generateUUID()
	}
	p.uuids[id] = struct{}{}
	return id
}

// findFileReference looks for an existing reference to the artifact by
// its project-relative path, falling back to a base-name match for
// references recorded under a different prefix.
func (p *Project) findFileReference(spec ArtifactSpec) (string, bool) {
	var id string
	p.Section("PBXFileReference").ForeachWithFilter(func(key string, val interface{}) pbxparser.IterateActionType {
		if !isObject(val) {
			return pbxparser.IterateActionContinue
		}
		refPath := unquoted(toObject(val).GetString("path"))
		if refPath == spec.Path || path.Base(refPath) == spec.Name {
			id = key
			return pbxparser.IterateActionBreak
		}
		return pbxparser.IterateActionContinue
	}, nonCommentsFilter)
	return id, id != ""
}

func (p *Project) findBuildFile(fileRefID string) (string, bool) {
	var id string
	p.Section("PBXBuildFile").ForeachWithFilter(func(key string, val interface{}) pbxparser.IterateActionType {
		if isObject(val) && toObject(val).GetString("fileRef") == fileRefID {
			id = key
			return pbxparser.IterateActionBreak
		}
		return pbxparser.IterateActionContinue
	}, nonCommentsFilter)
	return id, id != ""
}

func (p *Project) addFileReference(id string, spec ArtifactSpec) {
	record := pbxparser.NewObjectWithData([]pbxparser.ObjectItem{
		pbxparser.NewObjectItem("isa", "PBXFileReference"),
		pbxparser.NewObjectItem("lastKnownFileType", spec.Kind.FileType()),
		pbxparser.NewObjectItem("name", quoted(spec.Name)),
		pbxparser.NewObjectItem("path", quoted(spec.Path)),
		pbxparser.NewObjectItem("sourceTree", `"<group>"`),
	})
	section := p.ensureSection("PBXFileReference")
	section.Set(id, record)
	section.Set(toCommentKey(id), spec.Name)
}

func (p *Project) addBuildFile(id, fileRefID string, spec ArtifactSpec) {
	record := pbxparser.NewObjectWithData([]pbxparser.ObjectItem{
		pbxparser.NewObjectItem("isa", "PBXBuildFile"),
		pbxparser.NewObjectItem("fileRef", fileRefID),
		pbxparser.NewObjectItem(toCommentKey("fileRef"), spec.Name),
	})
	section := p.ensureSection("PBXBuildFile")
	section.Set(id, record)
	section.Set(toCommentKey(id), fmt.Sprintf("%s in %s", spec.Name, spec.Phase))
}

func (p *Project) addToGroup(groupName, fileRefID, comment string) error {
	group := p.groupByName(groupName)
	if group.IsEmpty() {
		return fmt.Errorf("%w: %q", ErrGroupMissing, groupName)
	}
	children := toValueList(group.ForceGet("children"))
	if containsReference(children, fileRefID) {
		return nil
	}
	group.Set("children", append(children, pbxparser.NewCommentedValue(fileRefID, comment)))
	return nil
}

func (p *Project) addToPhase(spec ArtifactSpec, buildFileID string) error {
	phase := p.buildPhaseByName(spec.Kind.phaseISA(), spec.Phase)
	if phase.IsEmpty() {
		return fmt.Errorf("%w: %q (%s)", ErrPhaseMissing, spec.Phase, spec.Kind.phaseISA())
	}
	files := toValueList(phase.ForceGet("files"))
	if containsReference(files, buildFileID) {
		return nil
	}
	comment := fmt.Sprintf("%s in %s", spec.Name, spec.Phase)
	phase.Set("files", append(files, pbxparser.NewCommentedValue(buildFileID, comment)))
	return nil
}

// ensureLinkerSettings adds the search path and force-load flags to every
// build configuration that has a settings block, appending only tokens
// that are absent and leaving existing entries untouched.
func (p *Project) ensureLinkerSettings(spec ArtifactSpec) (bool, error) {
	var configurations, updated int
	p.Section("XCBuildConfiguration").ForeachWithFilter(func(_ string, val interface{}) pbxparser.IterateActionType {
		if !isObject(val) {
			return pbxparser.IterateActionContinue
		}
		config := toObject(val)
		if !config.Has("buildSettings") {
			return pbxparser.IterateActionContinue
		}
		configurations++
		settings := config.GetObject("buildSettings")

		changed := ensureListValue(settings, "LIBRARY_SEARCH_PATHS", inherited)
		changed = ensureListValue(settings, "LIBRARY_SEARCH_PATHS", spec.SearchPathDir) || changed
		changed = ensureListValue(settings, "OTHER_LDFLAGS", inherited) || changed
		if ensureForceLoad(settings, spec.LoadPath) {
			changed = true
		}
		if changed {
			updated++
		}
		return pbxparser.IterateActionContinue
	}, nonCommentsFilter)

	if configurations == 0 {
		return false, ErrNoBuildConfigurations
	}
	return updated > 0, nil
}

func ensureListValue(settings pbxparser.Object, key, value string) bool {
	list := toValueList(settings.ForceGet(key))
	if containsListValue(list, value) {
		return false
	}
	settings.Set(key, append(list, quoted(value)))
	return true
}

// ensureForceLoad appends the "-force_load <path>" flag pair; the flag
// and its argument travel together, keyed on the path being absent.
func ensureForceLoad(settings pbxparser.Object, loadPath string) bool {
	list := toValueList(settings.ForceGet("OTHER_LDFLAGS"))
	if containsListValue(list, loadPath) {
		return false
	}
	settings.Set("OTHER_LDFLAGS", append(list, quoted("-force_load"), quoted(loadPath)))
	return true
}

// containsReference reports whether a children/files list already holds
// the identifier, whether as a commented entry or a bare one.
func containsReference(list []interface{}, id string) bool {
	for _, elem := range list {
		switch v := elem.(type) {
		case pbxparser.Object:
			if v.GetString("value") == id {
				return true
			}
		case string:
			if v == id {
				return true
			}
		}
	}
	return false
}

var (
	escapeScript   = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	unescapeScript = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\t`, "\t")
)

// AppendToShellScriptPhase appends a script fragment to the named
// PBXShellScriptBuildPhase. When guard is already present in the phase's
// script the call is a no-op, which is what makes re-appending safe. It
// reports whether the fragment was added.
func (p *Project) AppendToShellScriptPhase(phaseName, guard, script string) (bool, error) {
	phase := p.buildPhaseByName("PBXShellScriptBuildPhase", phaseName)
	if phase.IsEmpty() {
		return false, fmt.Errorf("%w: %q (PBXShellScriptBuildPhase)", ErrPhaseMissing, phaseName)
	}
	current := unescapeScript.Replace(unquoted(phase.GetString("shellScript")))
	if guard != "" && strings.Contains(current, guard) {
		return false, nil
	}
	combined := strings.TrimRight(current, "\n")
	if combined != "" {
		combined += "\n"
	}
	combined += script
	phase.Set("shellScript", `"`+escapeScript.Replace(combined)+`"`)
	return true, nil
}
