package java

// JavaHeaderQuery 文件头：包声明和导入。
// 约定：每个模式只有一个捕获位，捕获整个声明节点，由处理函数自行拆分。
const JavaHeaderQuery = `
[
  ; 1. 包声明
  (package_declaration) @package_def

  ; 2. 导入 (含 static 与通配符)
  (import_declaration) @import_def
]
`
