// Package codec 提供一套与具体编码载体无关的对象序列化引擎。
//
// 核心概念：
//   - Codec：针对单一类型、单一载体的编解码逻辑单元；
//   - Format：载体需要实现的最小原语契约（基础类型、序列条目、
//     具名子节点、类型标签与空值哨兵）；
//   - Core：进程级注册表，负责按类型标识惰性解析、构建并缓存 Codec，
//     并在其上透明叠加空值安全与动态分发两层包装。
//
// 同一套核心可以复用到树形文本、二进制流等多种载体上，
// 各载体只需提供叶子级的基础编码实现。
package codec
