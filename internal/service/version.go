package service

import (
	"strconv"
	"strings"
)

// NextVersion 根据产品已有的BOM版本计算下一个版本号
// 无版本时返回"1.0"；否则取最大(major, minor)并返回"{major}.{minor+1}"，第三段及以后忽略
func NextVersion(versions []string) string {
	if len(versions) == 0 {
		return "1.0"
	}

	maxMajor, maxMinor := parseVersion(versions[0])
	for _, v := range versions[1:] {
		major, minor := parseVersion(v)
		if major > maxMajor || (major == maxMajor && minor > maxMinor) {
			maxMajor, maxMinor = major, minor
		}
	}
	return strconv.Itoa(maxMajor) + "." + strconv.Itoa(maxMinor+1)
}

// parseVersion 解析主次版本，主版本无法解析时取1，次版本缺失或无法解析时取0
func parseVersion(v string) (major, minor int) {
	parts := strings.Split(strings.TrimSpace(v), ".")

	major = 1
	if n, err := strconv.Atoi(parts[0]); err == nil {
		major = n
	}
	if len(parts) > 1 {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			minor = n
		}
	}
	return major, minor
}

// SuggestCopyVersion 复制BOM时建议的新版本号
// 最后一段为整数则加一，否则整体追加".1"
func SuggestCopyVersion(current string) string {
	parts := strings.Split(current, ".")
	last := parts[len(parts)-1]
	if n, err := strconv.Atoi(last); err == nil {
		parts[len(parts)-1] = strconv.Itoa(n + 1)
		return strings.Join(parts, ".")
	}
	return current + ".1"
}
