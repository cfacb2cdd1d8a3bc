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
	"fmt"
	"strings"

	"github.com/fipers/fipers-integrate/pbxparser"
)

const indentUnit = "\t"

// writer serializes the parsed tree back to manifest text. The output is
// deterministic: serializing, reparsing and serializing again produces
// identical bytes, which is what makes re-running a patch a no-op.
type writer struct {
	sb    strings.Builder
	level int
	err   error
}

func marshal(contents pbxparser.Object) ([]byte, error) {
	w := &writer{}
	w.writeHeadComment(contents)
	w.writeProject(contents.GetObject("project"))
	if w.err != nil {
		return nil, w.err
	}
	return []byte(w.sb.String()), nil
}

func (w *writer) printf(format string, args ...interface{}) {
	w.sb.WriteString(strings.Repeat(indentUnit, w.level))
	fmt.Fprintf(&w.sb, format, args...)
}

func (w *writer) printfBare(format string, args ...interface{}) {
	fmt.Fprintf(&w.sb, format, args...)
}

func (w *writer) fail(key string, val interface{}) {
	if w.err == nil {
		w.err = fmt.Errorf("pbxproj: cannot serialize entry %q (%T)", key, val)
	}
}

func (w *writer) writeHeadComment(contents pbxparser.Object) {
	if comment := contents.GetString("headComment"); comment != "" {
		w.printfBare("// %s\n", comment)
	}
}

func (w *writer) writeProject(proj pbxparser.Object) {
	w.printf("{\n")
	w.level++
	proj.ForeachWithFilter(func(key string, val interface{}) pbxparser.IterateActionType {
		if key == "objects" && isObject(val) {
			w.printf("objects = {\n")
			w.level++
			w.writeObjectsSections(toObject(val))
			w.level--
			w.printf("};\n")
		} else {
			w.writeEntry(key, val, proj)
		}
		return pbxparser.IterateActionContinue
	}, nonCommentsFilter)
	w.level--
	w.printf("}\n")
}

func (w *writer) writeEntry(key string, val interface{}, parent pbxparser.Object) {
	comment := parent.GetString(toCommentKey(key))
	switch {
	case isArray(val):
		w.writeArray(key, toArray(val))
	case isObject(val):
		w.printf("%s = {\n", key)
		w.level++
		w.writeObject(toObject(val))
		w.level--
		w.printf("};\n")
	case isString(val):
		if comment != "" {
			w.printf("%s = %s /* %s */;\n", key, val, comment)
		} else {
			w.printf("%s = %s;\n", key, val)
		}
	case isInt(val):
		if comment != "" {
			w.printf("%s = %s /* %s */;\n", key, toIntString(val), comment)
		} else {
			w.printf("%s = %s;\n", key, toIntString(val))
		}
	default:
		w.fail(key, val)
	}
}

func (w *writer) writeObject(obj pbxparser.Object) {
	obj.ForeachWithFilter(func(key string, val interface{}) pbxparser.IterateActionType {
		w.writeEntry(key, val, obj)
		return pbxparser.IterateActionContinue
	}, nonCommentsFilter)
}

// writeObjectsSections renders the objects table grouped into the
// familiar "/* Begin X section */ ... /* End X section */" blocks.
func (w *writer) writeObjectsSections(sections pbxparser.Object) {
	sections.Foreach(func(isa string, val interface{}) pbxparser.IterateActionType {
		if !isObject(val) {
			return pbxparser.IterateActionContinue
		}
		section := toObject(val)
		if section.IsEmpty() {
			return pbxparser.IterateActionContinue
		}
		w.printfBare("\n/* Begin %s section */\n", isa)
		w.writeSection(section)
		w.printfBare("/* End %s section */\n", isa)
		return pbxparser.IterateActionContinue
	})
}

func (w *writer) writeSection(section pbxparser.Object) {
	section.ForeachWithFilter(func(key string, val interface{}) pbxparser.IterateActionType {
		if !isObject(val) {
			return pbxparser.IterateActionContinue
		}
		obj := toObject(val)
		comment := section.GetString(toCommentKey(key))
		// build-file and file-reference records are written on one line
		isa := obj.GetString("isa")
		if isa == "PBXBuildFile" || isa == "PBXFileReference" {
			w.writeInlineObject(key, comment, obj)
			return pbxparser.IterateActionContinue
		}
		if comment != "" {
			w.printf("%s /* %s */ = {\n", key, comment)
		} else {
			w.printf("%s = {\n", key)
		}
		w.level++
		w.writeObject(obj)
		w.level--
		w.printf("};\n")
		return pbxparser.IterateActionContinue
	}, nonCommentsFilter)
}

func (w *writer) writeArray(name string, arr []interface{}) {
	w.printf("%s = (\n", name)
	w.level++
	for _, elem := range arr {
		switch {
		case isObject(elem):
			obj := toObject(elem)
			value := obj.GetString("value")
			comment := obj.GetString("comment")
			if value != "" && comment != "" {
				w.printf("%s /* %s */,\n", value, comment)
			} else {
				w.printf("{\n")
				w.level++
				w.writeObject(obj)
				w.level--
				w.printf("},\n")
			}
		case isString(elem):
			w.printf("%s,\n", elem)
		case isInt(elem):
			w.printf("%s,\n", toIntString(elem))
		default:
			w.fail(name, elem)
		}
	}
	w.level--
	w.printf(");\n")
}

func (w *writer) writeInlineObject(key, comment string, obj pbxparser.Object) {
	var pieces []string
	w.inlineObject(&pieces, key, comment, obj)
	w.printf("%s\n", strings.TrimSpace(strings.Join(pieces, "")))
}

func (w *writer) inlineObject(pieces *[]string, key, comment string, obj pbxparser.Object) {
	out := *pieces
	if comment != "" {
		out = append(out, fmt.Sprintf("%s /* %s */ = {", key, comment))
	} else {
		out = append(out, fmt.Sprintf("%s = {", key))
	}

	obj.ForeachWithFilter(func(k string, val interface{}) pbxparser.IterateActionType {
		cmt := obj.GetString(toCommentKey(k))
		switch {
		case isArray(val):
			out = append(out, fmt.Sprintf("%s = (%s); ", k, strings.Join(inlineArrayElements(toArray(val)), ",")))
		case isObject(val):
			w.inlineObject(&out, k, cmt, toObject(val))
		case isString(val):
			if cmt != "" {
				out = append(out, fmt.Sprintf("%s = %s /* %s */; ", k, val, cmt))
			} else {
				out = append(out, fmt.Sprintf("%s = %s; ", k, val))
			}
		case isInt(val):
			if cmt != "" {
				out = append(out, fmt.Sprintf("%s = %s /* %s */; ", k, toIntString(val), cmt))
			} else {
				out = append(out, fmt.Sprintf("%s = %s; ", k, toIntString(val)))
			}
		default:
			w.fail(k, val)
		}
		return pbxparser.IterateActionContinue
	}, nonCommentsFilter)

	out = append(out, "};")
	*pieces = out
}

func inlineArrayElements(arr []interface{}) []string {
	elems := make([]string, 0, len(arr))
	for _, elem := range arr {
		switch {
		case isObject(elem):
			obj := toObject(elem)
			elems = append(elems, fmt.Sprintf("%s /* %s */", obj.GetString("value"), obj.GetString("comment")))
		case isString(elem):
			elems = append(elems, elem.(string))
		case isInt(elem):
			elems = append(elems, toIntString(elem))
		}
	}
	return elems
}
