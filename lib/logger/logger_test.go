package logger

import "testing"

func TestEffectiveLevelDefault(t *testing.T) {
	l := New()
	if got := l.EffectiveLevel("whatever"); got != LevelInfo {
		t.Errorf("default effective level = %v, want %v", got, LevelInfo)
	}
}

func TestSTTRACEFacility(t *testing.T) {
	l := New()
	l.parseSTTRACE("host,sceda:warn")

	if got := l.EffectiveLevel("host"); got != LevelDebug {
		t.Errorf("host level = %v, want %v", got, LevelDebug)
	}
	if got := l.EffectiveLevel("sceda"); got != LevelWarn {
		t.Errorf("sceda level = %v, want %v", got, LevelWarn)
	}
	if got := l.EffectiveLevel("other"); got != LevelInfo {
		t.Errorf("other level = %v, want %v", got, LevelInfo)
	}
}

func TestSTTRACEAll(t *testing.T) {
	l := New()
	l.parseSTTRACE("all:debug")
	if got := l.EffectiveLevel("anything"); got != LevelDebug {
		t.Errorf("effective level = %v, want %v", got, LevelDebug)
	}
}

func TestFacilityLoggerDoesNotPanic(t *testing.T) {
	l := New()
	f := l.NewFacility("test", "a test facility")
	f.Debugln("hello", 1, 2)
	f.Infof("formatted %d", 42)
	f.Warnln("careful")
	f.Errorf("boom: %v", "oops")
}
