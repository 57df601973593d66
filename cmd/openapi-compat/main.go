// Command openapi-compat checks that the API description compiled into the
// server still covers everything a committed baseline promised.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"socialhub/docs"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

type operation struct {
	Responses map[string]struct{}
	// Required holds "in:name" keys of required parameters.
	Required map[string]struct{}
}

type parsedSpec struct {
	Paths map[string]map[string]operation
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("openapi-compat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	basePath := fs.String("base", "", "baseline swagger file (yaml or json)")
	revisionPath := fs.String("revision", "", "revision swagger file; defaults to the compiled-in docs")
	writePath := fs.String("write", "", "write the compiled-in docs as yaml to this path and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *writePath != "" {
		if err := writeCurrent(*writePath); err != nil {
			fmt.Fprintf(stderr, "failed to write current docs: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "wrote %s\n", *writePath)
		return 0
	}

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(stderr, "usage: openapi-compat -base <path> [-revision <path>] | -write <path>")
		return 2
	}

	baseSpec, err := loadSpec(*basePath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load base spec: %v\n", err)
		return 1
	}

	var revisionSpec parsedSpec
	if *revisionPath != "" {
		revisionSpec, err = loadSpec(*revisionPath)
	} else {
		revisionSpec, err = parseSpec([]byte(docs.SwaggerInfo.ReadDoc()))
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to load revision spec: %v\n", err)
		return 1
	}

	issues := compare(baseSpec, revisionSpec)
	if len(issues) > 0 {
		fmt.Fprintln(stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(stderr, "- %s\n", issue)
		}
		return 1
	}

	fmt.Fprintln(stdout, "openapi compatibility check passed")
	return 0
}

// writeCurrent re-encodes the compiled-in swagger JSON as yaml so it can be
// committed as the next baseline.
func writeCurrent(path string) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func loadSpec(path string) (parsedSpec, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return parsedSpec{}, err
	}
	return parseSpec(raw)
}

// parseSpec reads swagger 2.0 yaml or json. JSON parses as yaml.
func parseSpec(raw []byte) (parsedSpec, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return parsedSpec{}, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return parsedSpec{}, errors.New("missing top-level paths field")
	}
	pathsMap, ok := toMap(pathsRaw)
	if !ok {
		return parsedSpec{}, errors.New("paths is not an object")
	}

	spec := parsedSpec{Paths: make(map[string]map[string]operation)}
	for pathKey, pathEntry := range pathsMap {
		pathOpsRaw, ok := toMap(pathEntry)
		if !ok {
			continue
		}

		ops := make(map[string]operation)
		for methodKey, methodEntry := range pathOpsRaw {
			methodLower := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[methodLower]; !supported {
				continue
			}
			methodMap, ok := toMap(methodEntry)
			if !ok {
				continue
			}
			ops[methodLower] = operation{
				Responses: responseCodes(methodMap["responses"]),
				Required:  requiredParams(methodMap["parameters"]),
			}
		}

		if len(ops) > 0 {
			spec.Paths[pathKey] = ops
		}
	}

	return spec, nil
}

func responseCodes(v interface{}) map[string]struct{} {
	set := make(map[string]struct{})
	responsesMap, ok := toMap(v)
	if !ok {
		return set
	}
	for code := range responsesMap {
		if normalized := strings.ToLower(strings.TrimSpace(code)); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

func requiredParams(v interface{}) map[string]struct{} {
	set := make(map[string]struct{})
	params, ok := v.([]interface{})
	if !ok {
		return set
	}
	for _, p := range params {
		pm, ok := toMap(p)
		if !ok {
			continue
		}
		if required, _ := pm["required"].(bool); !required {
			continue
		}
		in, _ := pm["in"].(string)
		name, _ := pm["name"].(string)
		set[in+":"+name] = struct{}{}
	}
	return set
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func compare(base, revision parsedSpec) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}

			for responseCode := range baseOp.Responses {
				if _, ok := revOp.Responses[responseCode]; !ok {
					issues = append(issues, fmt.Sprintf(
						"removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(responseCode),
					))
				}
			}

			for param := range revOp.Required {
				if _, ok := baseOp.Required[param]; !ok {
					issues = append(issues, fmt.Sprintf(
						"new required parameter: %s %s -> %s",
						strings.ToUpper(method), path, param,
					))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}
