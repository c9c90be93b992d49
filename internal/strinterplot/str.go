// Package strinterplot fills variables into query and prompt templates.
package strinterplot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	var_template "github.com/xhd2015/go-var-template"
)

// Interplot fills args into tpl
func Interplot(tpl string, args map[string]any) (string, error) {
	res, err := InterplotList([]string{tpl}, args)
	if err != nil {
		return "", err
	}
	return res[0], nil
}

func InterplotList(list []string, args map[string]any) ([]string, error) {
	argsStr := make(map[string]string, len(args))
	for k, v := range args {
		str, err := getStr(v)
		if err != nil {
			return nil, fmt.Errorf("get str %s: %v", k, err)
		}
		argsStr[k] = str
	}

	res := make([]string, len(list))
	for i, v := range list {
		str, err := interplot(v, argsStr)
		if err != nil {
			return nil, fmt.Errorf("interplot %s: %v", v, err)
		}
		res[i] = str
	}
	return res, nil
}

// ParseVars parses repeated k=v flags
func ParseVars(vars []string) (map[string]any, error) {
	args := make(map[string]any, len(vars))
	for _, kv := range vars {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid var %q, expect key=value", kv)
		}
		args[k] = v
	}
	return args, nil
}

func interplot(tpl string, args map[string]string) (string, error) {
	ctpl := var_template.Compile(tpl)
	return ctpl.Execute(args)
}

func getStr(v interface{}) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	jsonRes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(jsonRes), nil
}
