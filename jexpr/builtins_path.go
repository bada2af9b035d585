package jexpr

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

func pathFunctions() []Function {
	return []Function{
		newFunction("PATH", "Converts a string to a path.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				return NewPath(filepath.Clean(textArg(args, 0))), nil
			}),
		newFunction("PATH_COMBINE", "Joins path elements with the platform separator.", 1, Unbounded,
			func(call *Call, args []Value) (Value, error) {
				parts := make([]string, len(args))
				for i := range args {
					parts[i] = textArg(args, i)
				}
				return NewPath(filepath.Join(parts...)), nil
			}),
		pathTransform("GET_PARENT_DIRECTORY", "Returns the parent directory of a path.", func(p string) Value {
			return NewPath(filepath.Dir(p))
		}),
		pathTransform("GET_NAME", "Returns the last element of a path.", func(p string) Value {
			return NewText(filepath.Base(p))
		}),
		pathTransform("GET_EXTENSION", "Returns the file extension including the dot, or an empty string.", func(p string) Value {
			return NewText(filepath.Ext(p))
		}),
		withCapabilities(pathTest("PATH_EXISTS", "Returns true if the path exists.", func(fs.FileInfo) bool { return true }), CapNonDeterministic),
		withCapabilities(pathTest("IS_FILE", "Returns true if the path is a regular file.", func(info fs.FileInfo) bool { return info.Mode().IsRegular() }), CapNonDeterministic),
		withCapabilities(pathTest("IS_DIRECTORY", "Returns true if the path is a directory.", func(info fs.FileInfo) bool { return info.IsDir() }), CapNonDeterministic),
	}
}

func pathTransform(name, description string, f func(string) Value) Function {
	return newFunction(name, description, 1, 1, func(call *Call, args []Value) (Value, error) {
		return f(textArg(args, 0)), nil
	})
}

func pathTest(name, description string, pred func(fs.FileInfo) bool) Function {
	return newFunction(name, description, 1, 1, func(call *Call, args []Value) (Value, error) {
		info, err := os.Stat(textArg(args, 0))
		if errors.Is(err, fs.ErrNotExist) {
			return NewBool(false), nil
		}
		if err != nil {
			return NewNull(), err
		}
		return NewBool(pred(info)), nil
	})
}
