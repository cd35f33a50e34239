package java

// --- Java 内置符号表 ---

// BuiltinTable 简单名到 JDK 限定名。这些名字即使没有显式导入也视为外部类型，
// 不产生依赖边，也不进入未解析报告。
var BuiltinTable = map[string]string{
	// === java.lang 核心类 (默认隐式导入) ===
	"String":              "java.lang.String",
	"Object":              "java.lang.Object",
	"System":              "java.lang.System",
	"Integer":             "java.lang.Integer",
	"Long":                "java.lang.Long",
	"Double":              "java.lang.Double",
	"Float":               "java.lang.Float",
	"Boolean":             "java.lang.Boolean",
	"Byte":                "java.lang.Byte",
	"Character":           "java.lang.Character",
	"Short":               "java.lang.Short",
	"Void":                "java.lang.Void",
	"Number":              "java.lang.Number",
	"Math":                "java.lang.Math",
	"Class":               "java.lang.Class",
	"ClassLoader":         "java.lang.ClassLoader",
	"Thread":              "java.lang.Thread",
	"ThreadGroup":         "java.lang.ThreadGroup",
	"ThreadLocal":         "java.lang.ThreadLocal",
	"StringBuilder":       "java.lang.StringBuilder",
	"StringBuffer":        "java.lang.StringBuffer",
	"Enum":                "java.lang.Enum",
	"Throwable":           "java.lang.Throwable",
	"Exception":           "java.lang.Exception",
	"RuntimeException":    "java.lang.RuntimeException",
	"Error":               "java.lang.Error",
	"StackTraceElement":   "java.lang.StackTraceElement",
	"Iterable":            "java.lang.Iterable",
	"AutoCloseable":       "java.lang.AutoCloseable",
	"Runnable":            "java.lang.Runnable",
	"Comparable":          "java.lang.Comparable",
	"CharSequence":        "java.lang.CharSequence",
	"Override":            "java.lang.Override",
	"Deprecated":          "java.lang.Deprecated",
	"SuppressWarnings":    "java.lang.SuppressWarnings",
	"SafeVarargs":         "java.lang.SafeVarargs",
	"FunctionalInterface": "java.lang.FunctionalInterface",

	// === java.lang 常用异常 ===
	"NullPointerException":          "java.lang.NullPointerException",
	"IllegalArgumentException":      "java.lang.IllegalArgumentException",
	"IllegalStateException":         "java.lang.IllegalStateException",
	"IndexOutOfBoundsException":     "java.lang.IndexOutOfBoundsException",
	"UnsupportedOperationException": "java.lang.UnsupportedOperationException",

	// === java.lang.annotation 核心元注解与枚举 ===
	"Retention":     "java.lang.annotation.Retention",
	"Target":        "java.lang.annotation.Target",
	"Documented":    "java.lang.annotation.Documented",
	"Inherited":     "java.lang.annotation.Inherited",
	"Native":        "java.lang.annotation.Native",
	"Repeatable":    "java.lang.annotation.Repeatable",
	"Resource":      "javax.annotation.Resource",
	"PostConstruct": "javax.annotation.PostConstruct",
	"PreDestroy":    "javax.annotation.PreDestroy",
	"Generated":     "javax.annotation.Generated",
	"Nullable":      "javax.annotation.Nullable",
	"Nonnull":       "javax.annotation.Nonnull",

	// 元注解使用的枚举类型
	"RetentionPolicy": "java.lang.annotation.RetentionPolicy",
	"ElementType":     "java.lang.annotation.ElementType",

	// 常见的枚举常量 (支持在注解参数中直接解析)
	"RUNTIME":   "java.lang.annotation.RetentionPolicy.RUNTIME",
	"SOURCE":    "java.lang.annotation.RetentionPolicy.SOURCE",
	"CLASS":     "java.lang.annotation.RetentionPolicy.CLASS",
	"TYPE":      "java.lang.annotation.ElementType.TYPE",
	"METHOD":    "java.lang.annotation.ElementType.METHOD",
	"FIELD":     "java.lang.annotation.ElementType.FIELD",
	"PARAMETER": "java.lang.annotation.ElementType.PARAMETER",

	// === java.util 集合框架 ===
	"Collection":    "java.util.Collection",
	"List":          "java.util.List",
	"ArrayList":     "java.util.ArrayList",
	"LinkedList":    "java.util.LinkedList",
	"Set":           "java.util.Set",
	"HashSet":       "java.util.HashSet",
	"TreeSet":       "java.util.TreeSet",
	"Map":           "java.util.Map",
	"HashMap":       "java.util.HashMap",
	"TreeMap":       "java.util.TreeMap",
	"LinkedHashMap": "java.util.LinkedHashMap",
	"Iterator":      "java.util.Iterator",
	"Optional":      "java.util.Optional",
	"Arrays":        "java.util.Arrays",
	"Collections":   "java.util.Collections",
	"UUID":          "java.util.UUID",
	"Date":          "java.util.Date",
	"Objects":       "java.util.Objects",
	"Scanner":       "java.util.Scanner",
	"Properties":    "java.util.Properties",

	// === java.util.stream & function (现代 Java 高频) ===
	"Stream":     "java.util.stream.Stream",
	"Collectors": "java.util.stream.Collectors",
	"Function":   "java.util.function.Function",
	"BiFunction": "java.util.function.BiFunction",
	"Consumer":   "java.util.function.Consumer",
	"Predicate":  "java.util.function.Predicate",
	"Supplier":   "java.util.function.Supplier",

	// === java.time (JSR-310 现代日期) ===
	"LocalDate":     "java.time.LocalDate",
	"LocalTime":     "java.time.LocalTime",
	"LocalDateTime": "java.time.LocalDateTime",
	"ZonedDateTime": "java.time.ZonedDateTime",
	"Duration":      "java.time.Duration",
	"Instant":       "java.time.Instant",

	// === java.io & java.nio ===
	"InputStream":  "java.io.InputStream",
	"OutputStream": "java.io.OutputStream",
	"File":         "java.io.File",
	"Serializable": "java.io.Serializable",
	"Path":         "java.nio.file.Path",
	"Paths":        "java.nio.file.Paths",
	"Files":        "java.nio.file.Files",

	// === java.util.concurrent ===
	"Executor":          "java.util.concurrent.Executor",
	"ExecutorService":   "java.util.concurrent.ExecutorService",
	"Executors":         "java.util.concurrent.Executors",
	"Future":            "java.util.concurrent.Future",
	"CompletableFuture": "java.util.concurrent.CompletableFuture",
	"ConcurrentHashMap": "java.util.concurrent.ConcurrentHashMap",
	"TimeUnit":          "java.util.concurrent.TimeUnit",

	// === 静态字段与内置对象 ===
	"out": "java.lang.System.out",
	"err": "java.lang.System.err",
	"in":  "java.lang.System.in",
}
