package funcs

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/evalgraph/engine"
	"github.com/kbukum/evalgraph/errors"
	"github.com/kbukum/evalgraph/eval"
	"github.com/kbukum/evalgraph/fingerprint"
)

// Built-in function kinds.
const (
	KindEnv      = "env"
	KindFile     = "file"
	KindChecksum = "checksum"
)

// RegisterBuiltins registers all built-in function kinds.
func RegisterBuiltins(reg *engine.Registry) {
	reg.RegisterFunc(KindEnv, EnvFunc)
	reg.RegisterFunc(KindFile, FileFunc)
	reg.RegisterFunc(KindChecksum, ChecksumFunc)
}

// EnvFunc resolves "env:NAME" to the value of the environment variable.
// An unset variable is an error so that dependents see a real failure
// instead of an empty string.
func EnvFunc(ctx context.Context, key eval.Key, env engine.Env) (eval.Value, error) {
	name, err := stringArg(key)
	if err != nil {
		return nil, err
	}
	value, ok := os.LookupEnv(name)
	if !ok {
		return nil, errors.NotFound("env", name)
	}
	return value, nil
}

// FileFunc resolves "file:PATH" to the file's contents as a string.
func FileFunc(ctx context.Context, key eval.Key, env engine.Env) (eval.Value, error) {
	path, err := stringArg(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("file", path)
		}
		return nil, errors.Internal(err)
	}
	return string(data), nil
}

// ChecksumFunc resolves "checksum:PATH" to the hex digest of the file's
// contents, depending on "file:PATH" so edits invalidate it.
func ChecksumFunc(ctx context.Context, key eval.Key, env engine.Env) (eval.Value, error) {
	path, err := stringArg(key)
	if err != nil {
		return nil, err
	}
	contents, err := env.Dep(ctx, eval.NewKey(KindFile, path))
	if err != nil {
		return nil, err
	}
	text, ok := contents.(string)
	if !ok {
		return nil, errors.Internal(fmt.Errorf("file value for %s is %T, not string", path, contents))
	}
	return fingerprint.HashBytes([]byte(text)).String(), nil
}

func stringArg(key eval.Key) (string, error) {
	s, ok := key.Argument().(string)
	if !ok || s == "" {
		return "", errors.InvalidInput("key", "argument must be a non-empty string")
	}
	return s, nil
}
