package agent

import (
	"net/url"
	"strings"
)

// ServiceBaseURL 规整配置里的 base_url。
// 先去掉误填的接口路径（endpoints 按顺序匹配第一个），再处理版本段：
// version 非空时保证路径以它结尾，为空时去掉结尾的 /v1（由 SDK 自己拼接）。
func ServiceBaseURL(raw, version string, endpoints ...string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimRight(raw, "/")
	}

	path := strings.TrimRight(u.Path, "/")
	for _, endpoint := range endpoints {
		if rest, ok := strings.CutSuffix(path, endpoint); ok {
			path = strings.TrimRight(rest, "/")
			break
		}
	}
	for strings.HasSuffix(path, "/v1/v1") {
		path = strings.TrimSuffix(path, "/v1")
	}
	switch {
	case version == "":
		path = strings.TrimRight(strings.TrimSuffix(path, "/v1"), "/")
	case !strings.HasSuffix(path, version):
		path += version
	}
	u.Path = path
	u.RawPath = ""
	return u.String()
}
