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

// Package pbxproj mutates Xcode project manifests structurally: the
// document is parsed into a tree of typed records, edited in memory and
// serialized back deterministically. Format assumptions (a group or build
// phase being present) are checked explicitly and reported instead of
// silently patching nothing.
package pbxproj

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"github.com/fipers/fipers-integrate/pbxparser"
)

type Project struct {
	path     string
	original []byte
	mode     fs.FileMode
	modTime  time.Time
	contents pbxparser.Object
	objects  pbxparser.Object
	uuids    map[string]struct{}
}

// Open reads and parses the manifest at path. The raw bytes are retained
// for Backup.
func Open(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project manifest: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	contents, err := pbxparser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	p := &Project{
		path:     path,
		original: data,
		mode:     info.Mode().Perm(),
		modTime:  info.ModTime(),
		contents: contents,
		uuids:    make(map[string]struct{}),
	}
	p.groupObjectsByISA()
	p.collectUUIDs()
	return p, nil
}

func (p *Project) Path() string {
	return p.path
}

// groupObjectsByISA reshapes the flat uuid->record objects table into
// per-isa sections, the shape the writer serializes from. Encounter
// order is kept, so reparsing our own output reproduces the same tree.
func (p *Project) groupObjectsByISA() {
	project := p.contents.GetObject("project")
	flat := project.GetObject("objects")
	sections := pbxparser.NewObject()

	flat.ForeachWithFilter(func(key string, val interface{}) pbxparser.IterateActionType {
		if !isObject(val) {
			return pbxparser.IterateActionContinue
		}
		record := toObject(val)
		isa := record.GetString("isa")
		if isa == "" {
			return pbxparser.IterateActionContinue
		}
		section := sections.GetObject(isa)
		if !sections.Has(isa) {
			section = pbxparser.NewObject()
			sections.Set(isa, section)
		}
		section.Set(key, record)
		if comment, ok := flat.Get(toCommentKey(key)); ok {
			section.Set(toCommentKey(key), comment)
		}
		return pbxparser.IterateActionContinue
	}, nonCommentsFilter)

	p.objects = sections
	if project.Has("objects") {
		project.Set("objects", sections)
	}
}

func (p *Project) collectUUIDs() {
	p.objects.Foreach(func(_ string, val interface{}) pbxparser.IterateActionType {
		if !isObject(val) {
			return pbxparser.IterateActionContinue
		}
		toObject(val).ForeachWithFilter(func(key string, _ interface{}) pbxparser.IterateActionType {
			if len(key) == 24 {
				p.uuids[key] = struct{}{}
			}
			return pbxparser.IterateActionContinue
		}, nonCommentsFilter)
		return pbxparser.IterateActionContinue
	})
}

// Section returns the records of one isa kind, e.g. "PBXFileReference".
func (p *Project) Section(isa string) pbxparser.Object {
	return p.objects.GetObject(isa)
}

// ensureSection returns the section, creating an empty one when the
// document has no record of that kind yet.
func (p *Project) ensureSection(isa string) pbxparser.Object {
	if !p.objects.Has(isa) {
		p.objects.Set(isa, pbxparser.NewObject())
	}
	return p.objects.GetObject(isa)
}

// recordByComment finds a record in the isa section by its comment name,
// the way groups and build phases are addressed in the manifest.
func (p *Project) recordByComment(isa, name string) pbxparser.Object {
	found := pbxparser.NewObject()
	section := p.Section(isa)
	section.ForeachWithFilter(func(key string, val interface{}) pbxparser.IterateActionType {
		if comment, ok := val.(string); ok && comment == name {
			found = section.GetObject(strings.TrimSuffix(key, pbxparser.CommentKeySuffix))
			return pbxparser.IterateActionBreak
		}
		return pbxparser.IterateActionContinue
	}, onlyCommentsFilter)
	return found
}

// groupByName finds a logical group (PBXGroup) by its comment name.
func (p *Project) groupByName(name string) pbxparser.Object {
	return p.recordByComment("PBXGroup", name)
}

// buildPhaseByName finds a build phase record of the given isa by its
// comment name ("Frameworks", "Bundle Framework", "ShellScript", ...).
func (p *Project) buildPhaseByName(isa, name string) pbxparser.Object {
	return p.recordByComment(isa, name)
}

// generateUUID mints a random 24-hex identifier not already used by any
// record in the document.
func (p *Project) generateUUID() string {
	for {
		u, err := uuid.NewV4()
		if err != nil {
			continue
		}
		id := strings.ToUpper(strings.ReplaceAll(u.String(), "-", ""))[:24]
		if _, taken := p.uuids[id]; !taken {
			p.uuids[id] = struct{}{}
			return id
		}
	}
}

// Backup writes a byte-identical copy of the pre-patch document next to
// the manifest, preserving the original timestamps. Recovery is manual.
func (p *Project) Backup() (string, error) {
	backupPath := p.path + ".backup"
	if err := os.WriteFile(backupPath, p.original, p.mode); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	_ = os.Chtimes(backupPath, p.modTime, p.modTime)
	return backupPath, nil
}

// Bytes serializes the current tree.
func (p *Project) Bytes() ([]byte, error) {
	return marshal(p.contents)
}

// Write serializes the tree back over the original manifest file.
func (p *Project) Write() error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, data, p.mode); err != nil {
		return fmt.Errorf("write project manifest: %w", err)
	}
	return nil
}

// Dump writes the parsed tree as indented JSON, for inspection.
func (p *Project) Dump(w io.Writer) error {
	buffer := bytes.NewBuffer(nil)
	enc := json.NewEncoder(buffer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.contents); err != nil {
		return err
	}
	_, err := w.Write(buffer.Bytes())
	return err
}
