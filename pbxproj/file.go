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
	"path"
	"strings"
)

// ArtifactKind classifies a prebuilt native library by how the linker
// consumes it.
type ArtifactKind int

const (
	// StaticArchive is a static library (.a), linked into the binary.
	StaticArchive ArtifactKind = iota
	// DynamicLibrary is a shared Mach-O library (.dylib), bundled and
	// loaded at run time.
	DynamicLibrary
)

func (k ArtifactKind) String() string {
	if k == DynamicLibrary {
		return "dynamic library"
	}
	return "static archive"
}

// FileType returns the lastKnownFileType value for a file reference of
// this kind, quoted the way the manifest format requires.
func (k ArtifactKind) FileType() string {
	if k == DynamicLibrary {
		return `"compiled.mach-o.dylib"`
	}
	return "archive.ar"
}

// defaultPhase is the build phase an artifact of this kind joins when
// the caller does not name one: archives are linked, dylibs are bundled.
func (k ArtifactKind) defaultPhase() string {
	if k == DynamicLibrary {
		return "Bundle Framework"
	}
	return "Frameworks"
}

func (k ArtifactKind) phaseISA() string {
	if k == DynamicLibrary {
		return "PBXCopyFilesBuildPhase"
	}
	return "PBXFrameworksBuildPhase"
}

var kindByExtension = map[string]ArtifactKind{
	".a":     StaticArchive,
	".dylib": DynamicLibrary,
	".so":    DynamicLibrary,
}

// KindForName derives the artifact kind from a library file name.
func KindForName(name string) (ArtifactKind, bool) {
	kind, found := kindByExtension[strings.ToLower(path.Ext(name))]
	return kind, found
}
