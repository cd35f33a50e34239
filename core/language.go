package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language 语言标识，同时作为缓存键的一部分
type Language string

const (
	LangJava Language = "java"
	LangGo   Language = "go"
)

// ParseLanguage 将命令行或配置中的语言名转换为 Language
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "java":
		return LangJava, nil
	case "go", "golang":
		return LangGo, nil
	}
	return "", fmt.Errorf("unsupported language: %s", s)
}

// DetectLanguage 按扩展名匹配已注册的前端，未匹配返回 false
func DetectLanguage(path string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	frontEndMu.RLock()
	defer frontEndMu.RUnlock()
	for lang, fe := range frontEndMap {
		for _, e := range fe.Extensions() {
			if e == ext {
				return lang, true
			}
		}
	}
	return "", false
}
