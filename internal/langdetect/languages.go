package langdetect

import (
	"regexp"

	"github.com/dshills/codeindex/pkg/types"
)

// DefaultLanguages is the built-in language table. Later entries win when
// two languages claim the same extension, so ".h" resolves to C.
var DefaultLanguages = []types.LanguageInfo{
	{
		ID: "cpp", Name: "C++",
		Extensions:   []string{"cpp", "cc", "cxx", "c++", "hpp", "hh", "hxx", "h", "h++", "ipp"},
		LineComment:  "//",
		BlockComment: [2]string{"/*", "*/"},
	},
	{
		ID: "c", Name: "C",
		Extensions:   []string{"c", "h"},
		LineComment:  "//",
		BlockComment: [2]string{"/*", "*/"},
	},
	{
		ID: "go", Name: "Go",
		Extensions:   []string{"go"},
		LineComment:  "//",
		BlockComment: [2]string{"/*", "*/"},
	},
	{
		ID: "java", Name: "Java",
		Extensions:   []string{"java"},
		LineComment:  "//",
		BlockComment: [2]string{"/*", "*/"},
	},
	{
		ID: "python", Name: "Python",
		Extensions:   []string{"py", "pyw", "pyi", "pyx"},
		LineComment:  "#",
		BlockComment: [2]string{`"""`, `"""`},
	},
	{
		ID: "javascript", Name: "JavaScript",
		Extensions:   []string{"js", "mjs", "cjs"},
		LineComment:  "//",
		BlockComment: [2]string{"/*", "*/"},
	},
	{
		ID: "typescript", Name: "TypeScript",
		Extensions:   []string{"ts", "tsx"},
		LineComment:  "//",
		BlockComment: [2]string{"/*", "*/"},
	},
	{
		ID: "rust", Name: "Rust",
		Extensions:   []string{"rs"},
		LineComment:  "//",
		BlockComment: [2]string{"/*", "*/"},
	},
	{
		ID: "html", Name: "HTML",
		Extensions:   []string{"html", "htm", "xhtml"},
		BlockComment: [2]string{"<!--", "-->"},
	},
	{
		ID: "css", Name: "CSS",
		Extensions:   []string{"css"},
		BlockComment: [2]string{"/*", "*/"},
	},
	{
		ID: "json", Name: "JSON",
		Extensions: []string{"json"},
	},
	{
		ID: "xml", Name: "XML",
		Extensions:   []string{"xml", "xsd", "xsl", "xslt", "svg"},
		BlockComment: [2]string{"<!--", "-->"},
	},
	{
		ID: "markdown", Name: "Markdown",
		Extensions: []string{"md", "markdown"},
		Filenames:  []string{"README", "README.md"},
	},
	{
		ID: "bash", Name: "Bash",
		Extensions:  []string{"sh", "bash"},
		Filenames:   []string{".bashrc", ".bash_profile", ".profile"},
		LineComment: "#",
	},
	{
		ID: "ruby", Name: "Ruby",
		Extensions:   []string{"rb"},
		Filenames:    []string{"Rakefile", "Gemfile"},
		LineComment:  "#",
		BlockComment: [2]string{"=begin", "=end"},
	},
	{
		ID: "php", Name: "PHP",
		Extensions:   []string{"php", "php3", "php4", "php5", "phtml"},
		LineComment:  "//",
		BlockComment: [2]string{"/*", "*/"},
	},
	{
		ID: "sql", Name: "SQL",
		Extensions:   []string{"sql"},
		LineComment:  "--",
		BlockComment: [2]string{"/*", "*/"},
	},
}

// DefaultIgnoreExtensions lists binary and media formats that are never indexed
var DefaultIgnoreExtensions = []string{
	"exe", "dll", "so", "dylib", "obj", "o", "a", "lib",
	"png", "jpg", "jpeg", "gif", "bmp", "ico", "svg", "webp",
	"mp3", "mp4", "wav", "ogg", "avi", "mov", "mkv", "flac",
	"zip", "tar", "gz", "bz2", "xz", "7z", "rar",
	"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx",
	"bin", "dat", "db", "sqlite", "sqlite3",
}

// DefaultIgnoreDirs are directory names skipped wherever they appear
var DefaultIgnoreDirs = []string{
	".git", ".svn", ".hg", "node_modules", "vendor", "build", "dist", "out",
	"bin", "obj", "target", "coverage", "__pycache__", ".vscode", ".idea", ".vs",
}

// DefaultIgnoreGlobs are doublestar patterns for generated and editor files
var DefaultIgnoreGlobs = []string{
	"**/*.min.js",
	"**/*.min.css",
	"**/*.d.ts",
	"**/*.generated.*",
	"**/*.Designer.*",
	"**/*~",
	"**/*.bak",
	"**/*.swp",
	"**/*.swo",
	"**/.DS_Store",
}

type shebangRule struct {
	pattern  *regexp.Regexp
	language string
}

var shebangRules = []shebangRule{
	{regexp.MustCompile(`^python[23]?(\.\d+)?$`), "python"},
	{regexp.MustCompile(`^ruby$`), "ruby"},
	{regexp.MustCompile(`^(ba|z)?sh$`), "bash"},
	{regexp.MustCompile(`^node(js)?$`), "javascript"},
	{regexp.MustCompile(`^php$`), "php"},
}

type heuristic struct {
	language string
	patterns []*regexp.Regexp
}

// heuristics are tried in order; the first language with a matching pattern wins
var heuristics = []heuristic{
	{"cpp", []*regexp.Regexp{
		regexp.MustCompile(`#include\s+<[^>]+>`),
		regexp.MustCompile(`using\s+namespace\s+\w+;`),
		regexp.MustCompile(`class\s+\w+\s*:\s*public`),
		regexp.MustCompile(`std::\w+`),
	}},
	{"java", []*regexp.Regexp{
		regexp.MustCompile(`public\s+class\s+\w+`),
		regexp.MustCompile(`import\s+java\.\w+`),
		regexp.MustCompile(`public\s+static\s+void\s+main`),
		regexp.MustCompile(`@Override`),
	}},
	{"go", []*regexp.Regexp{
		regexp.MustCompile(`(?m)^package\s+\w+\s*$`),
	}},
	{"python", []*regexp.Regexp{
		regexp.MustCompile(`(?m)^import\s+\w+`),
		regexp.MustCompile(`from\s+\w+\s+import`),
		regexp.MustCompile(`def\s+\w+\(.*\)\s*:`),
		regexp.MustCompile(`class\s+\w+\s*:`),
	}},
	{"javascript", []*regexp.Regexp{
		regexp.MustCompile(`function\s+\w+\s*\(`),
		regexp.MustCompile(`const\s+\w+\s*=`),
		regexp.MustCompile(`let\s+\w+\s*=`),
		regexp.MustCompile(`var\s+\w+\s*=`),
		regexp.MustCompile(`document\.getElementById`),
	}},
}
