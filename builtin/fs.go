package builtin

import (
	"os"
	"path/filepath"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildFs registers the Fs library: filesystem queries and the
// FileSize-producing size builtin from SPEC_FULL.md's supplemented
// features list (grounded on
// _examples/original_source/src/modules/bin/filesize_module.rs).
func buildFs() map[string]value.Builtin {
	return builder("Fs",
		fn("exists", "Fs.exists(path)", biFsExists),
		fn("is_dir", "Fs.is_dir(path)", biFsIsDir),
		fn("is_file", "Fs.is_file(path)", biFsIsFile),
		fn("read", "Fs.read(path) - file contents as a String", biFsRead),
		fn("write", "Fs.write(path, contents) - truncate and write", biFsWrite),
		fn("append", "Fs.append(path, contents)", biFsAppend),
		fn("list", "Fs.list(path) - List of entry names in a directory", biFsList),
		fn("remove", "Fs.remove(path)", biFsRemove),
		fn("mkdir", "Fs.mkdir(path) - create including parents", biFsMkdir),
		fn("size", "Fs.size(path) - FileSize value", biFsSize),
		fn("basename", "Fs.basename(path)", biFsBasename),
		fn("dirname", "Fs.dirname(path)", biFsDirname),
		fn("join", "Fs.join(a, b, ...) - path join", biFsJoin),
	)
}

func biFsExists(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.exists", args, env)
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(resolvePath(env, p))
	return value.Boolean(err == nil), nil
}

func biFsIsDir(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.is_dir", args, env)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(resolvePath(env, p))
	return value.Boolean(err == nil && info.IsDir()), nil
}

func biFsIsFile(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.is_file", args, env)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(resolvePath(env, p))
	return value.Boolean(err == nil && !info.IsDir()), nil
}

func biFsRead(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.read", args, env)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolvePath(env, p))
	if err != nil {
		return nil, errs.New(errs.KindIO, "Fs.read: %s", err)
	}
	return value.String(string(data)), nil
}

func biFsWrite(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	return fsWrite(args, env, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

func biFsAppend(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	return fsWrite(args, env, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
}

func fsWrite(args []value.Expression, env Env, flags int) (value.Expression, error) {
	if err := arity("Fs.write/append", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	p, err := asString("Fs.write/append", vals[0])
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(resolvePath(env, p), flags, 0644)
	if err != nil {
		return nil, errs.New(errs.KindIO, "Fs.write: %s", err)
	}
	defer f.Close()
	var data []byte
	if b, ok := vals[1].(value.Bytes); ok {
		data = []byte(b)
	} else {
		data = []byte(value.Display(vals[1]))
	}
	if _, err := f.Write(data); err != nil {
		return nil, errs.New(errs.KindIO, "Fs.write: %s", err)
	}
	return vals[1], nil
}

func biFsList(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.list", args, env)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(resolvePath(env, p))
	if err != nil {
		return nil, errs.New(errs.KindIO, "Fs.list: %s", err)
	}
	out := make([]value.Expression, len(entries))
	for i, e := range entries {
		out[i] = value.String(e.Name())
	}
	return value.NewList(out), nil
}

func biFsRemove(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.remove", args, env)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(resolvePath(env, p)); err != nil {
		return nil, errs.New(errs.KindIO, "Fs.remove: %s", err)
	}
	return value.None{}, nil
}

func biFsMkdir(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.mkdir", args, env)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(resolvePath(env, p), 0755); err != nil {
		return nil, errs.New(errs.KindIO, "Fs.mkdir: %s", err)
	}
	return value.None{}, nil
}

func biFsSize(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.size", args, env)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(resolvePath(env, p))
	if err != nil {
		return nil, errs.New(errs.KindIO, "Fs.size: %s", err)
	}
	return value.HumanFileSize(info.Size()), nil
}

func biFsBasename(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.basename", args, env)
	if err != nil {
		return nil, err
	}
	return value.String(filepath.Base(p)), nil
}

func biFsDirname(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	p, err := onePath("Fs.dirname", args, env)
	if err != nil {
		return nil, err
	}
	return value.String(filepath.Dir(p)), nil
}

func biFsJoin(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arityAtLeast("Fs.join", args, 1); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = value.Display(v)
	}
	return value.String(filepath.Join(parts...)), nil
}

func onePath(name string, args []value.Expression, env Env) (string, error) {
	if err := arity(name, args, 1); err != nil {
		return "", err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return "", err
	}
	return asString(name, v)
}

// resolvePath joins a relative path against the caller's logical cwd,
// since Fs.* builtins run independent of any spawned child process and
// must not rely on the OS process's actual working directory (spec
// §4.5's "logical cwd independently from the OS cwd").
func resolvePath(env Env, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	cwd := env.Env().Cwd()
	if cwd == "" {
		return p
	}
	return filepath.Join(cwd, p)
}
