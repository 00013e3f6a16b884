package configs

import (
	"github.com/magiconair/properties"
)

// LoadProperties overrides the run parameters from a .properties file.
// Command-line flags applied after this call win over file values.
func LoadProperties(path string) {
	p, err := properties.LoadFile(path, properties.UTF8)
	CheckError(err)

	if lvl, ok := p.Get("failure.level"); ok {
		parsed := ParseLvl(lvl)
		Assert(parsed >= 0, "invalid failure.level "+lvl)
		FailureLvl = parsed
	}
	DropRate = p.GetFloat64("failure.drop_rate", DropRate)
	DelayRate = p.GetFloat64("failure.delay_rate", DelayRate)
	FailureRate = p.GetFloat64("failure.failure_rate", FailureRate)
	RecoveryRate = p.GetFloat64("failure.recovery_rate", RecoveryRate)
	RandomSeed = p.GetInt64("sim.seed", RandomSeed)
	StorageType = p.GetString("storage.type", StorageType)
	StorageDir = p.GetString("storage.dir", StorageDir)
	UseWAL = p.GetBool("storage.wal", UseWAL)
	ScriptLocation = p.GetString("sim.script", ScriptLocation)
}
