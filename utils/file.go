package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func GetUniqSubDir(parentPath string) (path string, err error) {
	path = filepath.Join(parentPath, uuid.NewString())
	err = os.MkdirAll(path, os.ModePerm)
	return
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 在dir下生成与src同名、追加suffix并替换扩展名的路径
func DerivedPath(dir, src, suffix, ext string) string {
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, GetFilenameWithoutExt(src)+suffix+ext)
}
