package merlin

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
)

// TemplateExt marks files that are rendered instead of copied verbatim.
const TemplateExt = ".template"

func ContainsString(list []string, target string) bool {
	for _, el := range list {
		if el == target {
			return true
		}
	}
	return false
}

// Reads the lines of the given file.
func ReadLines(filename string) ([]string, error) {
	bytes, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(bytes), "\n"), nil
}

// Exists returns true if the given path exists.
func Exists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// DirExists returns true if the given path exists and is a directory.
func DirExists(filename string) bool {
	fileInfo, err := os.Stat(filename)
	return err == nil && fileInfo.IsDir()
}

// VerifyFilePath resolves the path and checks that it names an existing file.
func VerifyFilePath(filename string) (string, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("'%s' does not exist", filename)
	}
	if info.IsDir() {
		return "", fmt.Errorf("'%s' is a directory, not a file", filename)
	}
	return abs, nil
}

// VerifyDirPath resolves the path and checks that it names an existing directory.
func VerifyDirPath(dirname string) (string, error) {
	abs, err := filepath.Abs(dirname)
	if err != nil {
		return "", err
	}
	if !DirExists(abs) {
		return "", fmt.Errorf("'%s' is not a directory", dirname)
	}
	return abs, nil
}

// CopyFile copies a single file, creating dest.
func CopyFile(destFilename, srcFilename string) error {
	srcFile, err := os.Open(srcFilename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", srcFilename, err)
	}
	defer srcFile.Close()

	destFile, err := os.Create(destFilename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", destFilename, err)
	}

	if _, err = io.Copy(destFile, srcFile); err != nil {
		destFile.Close()
		return fmt.Errorf("failed to copy data from %s to %s: %w", srcFilename, destFilename, err)
	}
	return destFile.Close()
}

// RenderTemplate renders a template file to destPath using the given data.
func RenderTemplate(destPath, srcPath string, data map[string]interface{}) error {
	tmpl, err := template.ParseFiles(srcPath)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", srcPath, err)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("failed to render template %s: %w", srcPath, err)
	}
	return f.Close()
}

// CopyDir copies a directory tree over to a new directory.  Any files ending
// in ".template" are treated as a Go template and rendered using the given
// data, with the trailing ".template" stripped from the file name.
func CopyDir(destDir, srcDir string, data map[string]interface{}) error {
	return filepath.Walk(srcDir, func(srcPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relSrcPath := strings.TrimLeft(srcPath[len(srcDir):], string(os.PathSeparator))
		destPath := path.Join(destDir, relSrcPath)

		if info.IsDir() {
			if mkErr := os.MkdirAll(destPath, 0755); mkErr != nil && !os.IsExist(mkErr) {
				return fmt.Errorf("failed to create directory %s: %w", destPath, mkErr)
			}
			return nil
		}

		if strings.HasSuffix(relSrcPath, TemplateExt) {
			return RenderTemplate(destPath[:len(destPath)-len(TemplateExt)], srcPath, data)
		}
		return CopyFile(destPath, srcPath)
	})
}
