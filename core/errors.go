package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/CodMac/arch-depends/model"
)

// ErrorCode 分析过程中所有错误/诊断的稳定编码
type ErrorCode string

const (
	// UnresolvableReference 不动点结束后仍无法绑定的引用
	UnresolvableReference ErrorCode = "UNRESOLVABLE_REFERENCE"
	// MalformedEntity 前端事件引用了不存在的所有者，已创建占位实体
	MalformedEntity ErrorCode = "MALFORMED_ENTITY"
	// CacheCorruption 缓存内容无法反序列化，按未命中处理
	CacheCorruption ErrorCode = "CACHE_CORRUPTION"
	// PassBudgetExceeded 解析轮数超过配置上限
	PassBudgetExceeded ErrorCode = "PASS_BUDGET_EXCEEDED"
	// InvariantViolation 内部不变式被破坏 (例如包含关系成环)，属于程序缺陷
	InvariantViolation ErrorCode = "INVARIANT_VIOLATION"
	// ParseFailure 单个文件解析失败，跳过该文件
	ParseFailure ErrorCode = "PARSE_FAILURE"
	// Cancelled 分析被取消
	Cancelled ErrorCode = "CANCELLED"
)

var (
	ErrNoFrontEnd       = errors.New("no front-end registered")
	ErrNoSymbolResolver = errors.New("no symbol resolver registered")
)

// AnalysisError 带错误码的分析错误
type AnalysisError struct {
	Code     ErrorCode       `json:"code"`
	Message  string          `json:"message"`
	Location *model.Location `json:"location,omitempty"`
	cause    error
}

// NewAnalysisError creates a new AnalysisError
func NewAnalysisError(code ErrorCode, message string, loc *model.Location, cause error) *AnalysisError {
	return &AnalysisError{Code: code, Message: message, Location: loc, cause: cause}
}

func (e *AnalysisError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Location != nil {
		prefix += " " + e.Location.String()
	}
	if e.cause != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.cause)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *AnalysisError) Unwrap() error { return e.cause }

// IsCode 判断错误链中是否存在指定错误码
func IsCode(err error, code ErrorCode) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// UnresolvedEntry 一条无法解析的引用及其已知候选
type UnresolvedEntry struct {
	Name       string               `json:"name"`
	Kind       model.DependencyType `json:"kind"`
	Source     string               `json:"source"`
	Location   *model.Location      `json:"location,omitempty"`
	Candidates []string             `json:"candidates,omitempty"`
	Reason     ErrorCode            `json:"reason"`
}

// Diagnostics 收集非致命问题，可并发写入
type Diagnostics struct {
	mu         sync.Mutex
	errs       []*AnalysisError
	defects    []*AnalysisError
	unresolved []UnresolvedEntry
}

func NewDiagnostics() *Diagnostics { return &Diagnostics{} }

// Add 记录一条诊断，InvariantViolation 单独归入缺陷列表
func (d *Diagnostics) Add(err *AnalysisError) {
	if d == nil || err == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err.Code == InvariantViolation {
		d.defects = append(d.defects, err)
		return
	}
	d.errs = append(d.errs, err)
}

// AddUnresolved 记录一条未解析引用
func (d *Diagnostics) AddUnresolved(u UnresolvedEntry) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unresolved = append(d.unresolved, u)
}

func (d *Diagnostics) Errors() []*AnalysisError {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*AnalysisError(nil), d.errs...)
}

func (d *Diagnostics) Defects() []*AnalysisError {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*AnalysisError(nil), d.defects...)
}

// Unresolved 返回去重并排序后的未解析列表 (同一来源同一名字同一位置只保留一条)
func (d *Diagnostics) Unresolved() []UnresolvedEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	seen := make(map[string]struct{}, len(d.unresolved))
	out := make([]UnresolvedEntry, 0, len(d.unresolved))
	for _, u := range d.unresolved {
		key := u.Source + "|" + u.Name + "|" + string(u.Kind) + "|" + u.Location.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Location.Before(out[j].Location)
	})
	return out
}

// Count 按错误码统计
func (d *Diagnostics) Count(code ErrorCode) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code == UnresolvableReference {
		return len(d.unresolved)
	}
	n := 0
	for _, list := range [][]*AnalysisError{d.errs, d.defects} {
		for _, e := range list {
			if e.Code == code {
				n++
			}
		}
	}
	return n
}
