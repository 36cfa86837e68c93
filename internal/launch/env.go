package launch

import (
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// BuildEnv composes the child process environment from the inherited
// host environment plus override layers, later layers winning. The
// usual layers, in order: conda activation, the launcher's .env file,
// extra_env from the config.
func BuildEnv(host []string, layers ...map[string]string) []string {
	return buildEnv(host, runtime.GOOS == "windows", layers...)
}

// buildEnv keys case-insensitively when foldKeys is set, since Windows
// treats PATH and Path as the same variable. Overriding an inherited
// variable keeps its original name spelling.
func buildEnv(host []string, foldKeys bool, layers ...map[string]string) []string {
	canon := func(k string) string {
		if foldKeys {
			return strings.ToUpper(k)
		}
		return k
	}

	entries := make([]string, 0, len(host))
	index := make(map[string]int, len(host))

	for _, kv := range host {
		eq := strings.Index(kv, "=")
		if eq <= 0 {
			// Keep oddities like the hidden per-drive =C: entries verbatim
			entries = append(entries, kv)
			continue
		}
		key := kv[:eq]
		if i, ok := index[canon(key)]; ok {
			entries[i] = kv
			continue
		}
		index[canon(key)] = len(entries)
		entries = append(entries, kv)
	}

	for _, layer := range layers {
		keys := make([]string, 0, len(layer))
		for k := range layer {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			v := layer[k]
			if i, ok := index[canon(k)]; ok {
				existing := entries[i][:strings.Index(entries[i], "=")]
				entries[i] = existing + "=" + v
				continue
			}
			index[canon(k)] = len(entries)
			entries = append(entries, k+"="+v)
		}
	}

	return entries
}

// LoadDotEnv reads the optional .env file next to the launcher. A
// missing file is not an error; a malformed one is.
func LoadDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return vars, nil
}
