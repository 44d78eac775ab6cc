package logger

import (
	"testing"

	"github.com/jafrulamin/Class-Connect/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format}, "test")
		if err != nil {
			t.Fatalf("format=%s 初始化失败: %v", format, err)
		}
		l.Debug("ok")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}, ""); err == nil {
		t.Error("期望无效日志级别返回错误")
	}
}
