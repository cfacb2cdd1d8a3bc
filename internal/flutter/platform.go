package flutter

import "path/filepath"

// Platform is a Flutter build target that fipers ships a native library
// for.
type Platform string

const (
	IOS     Platform = "ios"
	MacOS   Platform = "macos"
	Android Platform = "android"
)

func (p Platform) String() string {
	return string(p)
}

// Dir is the platform subdirectory inside a Flutter application project.
func (p Platform) Dir() string {
	return string(p)
}

// ManifestPath is the Xcode project manifest relative to the application
// root. Android has no manifest in this sense and returns "".
func (p Platform) ManifestPath() string {
	switch p {
	case IOS, MacOS:
		return filepath.Join(string(p), "Runner.xcodeproj", "project.pbxproj")
	}
	return ""
}

// FrameworksDir is where the prebuilt library is copied, relative to the
// application root.
func (p Platform) FrameworksDir() string {
	switch p {
	case IOS, MacOS:
		return filepath.Join(string(p), "Frameworks")
	}
	return ""
}

// ArtifactName builds the platform library file name from the configured
// base name, e.g. "fipers" becomes "libfipers.a" on iOS.
func (p Platform) ArtifactName(base string) string {
	switch p {
	case IOS:
		return "lib" + base + ".a"
	case MacOS:
		return "lib" + base + ".dylib"
	case Android:
		return "lib" + base + ".so"
	}
	return ""
}
