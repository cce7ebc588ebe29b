package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON 类型定义，用于存储结构化附加数据（如回调原文）
type JSON map[string]interface{}

// JSONFromBytes 解析 JSON 字节为 JSON 类型
func JSONFromBytes(data []byte) (JSON, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var j JSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return j, nil
}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}
