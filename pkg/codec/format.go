package codec

// Format 是载体向核心暴露的最小原语契约。
// 核心只通过这组原语操纵载体，载体之间的结构差异
// （树形节点还是顺序字节流）被完全隔离在实现内部。
type Format[E any] interface {
	// Name 返回载体名称，用于日志与指标标签。
	Name() string

	NullCodec() NullCodec[E]
	BoolCodec() BoolCodec[E]
	IntCodec() IntCodec[E]
	UintCodec() UintCodec[E]
	FloatCodec() FloatCodec[E]
	StringCodec() StringCodec[E]

	// BeginEntries 把 enc 初始化为一个 size 个条目的序列。
	// 流式载体在此写出条目数。
	BeginEntries(enc E, size int) (E, error)
	// NewEntry 在序列上追加一个条目并返回其节点。
	NewEntry(seq E) (E, error)
	// Entries 返回序列的全部条目节点，顺序与写入一致。
	// 流式载体读出条目数后返回 n 个指向流自身的节点，
	// 调用方保证按序逐个解码。
	Entries(enc E) ([]E, error)

	// BeginObject 把 enc 初始化为对象节点，
	// 零字段的对象由此也占据一个有形节点；流式载体为空操作。
	BeginObject(enc E) (E, error)
	// NewField 在 enc 上创建名为 name 的子节点。
	// 流式载体不落盘字段名，依赖两侧一致的字段顺序。
	NewField(enc E, name string) (E, error)
	// FieldByName 按名定位子节点，第二个返回值表示是否存在。
	FieldByName(enc E, name string) (E, bool, error)

	// WriteTypeTag 在 enc 上记录动态类型标签。
	// WriteUntagged 记录“无标签”，树形载体通常为空操作，
	// 流式载体写出标记位以便 ReadTypeTag 对称消费。
	WriteTypeTag(enc E, typeName string) (E, error)
	WriteUntagged(enc E) (E, error)
	// ReadTypeTag 读取类型标签，第二个返回值表示标签是否存在。
	ReadTypeTag(enc E) (string, bool, error)
}

// RawBytesFormat 为可选扩展：载体对 []byte 有比逐元素
// 更紧凑的原生表示时实现它。
type RawBytesFormat[E any] interface {
	EncodeBytes(val []byte, enc E) (E, error)
	DecodeBytes(enc E) ([]byte, error)
}
