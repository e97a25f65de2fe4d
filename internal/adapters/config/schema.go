package config

// Configfile represents the structure of config.yaml as written by configure.
type Configfile struct {
	SrcDir            string         `yaml:"src_dir"`
	Hosts             []string       `yaml:"hosts"`
	Targets           []string       `yaml:"targets"`
	PrimaryHost       string         `yaml:"primary_host"`
	LibDir            string         `yaml:"libdir"`
	Naming            string         `yaml:"naming"`
	Version           string         `yaml:"version"`
	Components        ComponentsDTO  `yaml:"components"`
	Instrumentation   InstrumentDTO  `yaml:"instrumentation"`
	InTransition      bool           `yaml:"in_transition"`
	Generated         []GeneratedDTO `yaml:"generated"`
	ReconfigureInputs []string       `yaml:"reconfigure_inputs"`
	ConfigureArgs     []string       `yaml:"configure_args"`
	Prefix            string         `yaml:"prefix"`
	Snapshot          SnapshotDTO    `yaml:"snapshot"`
	SourceSuffixes    []string       `yaml:"source_suffixes"`
	TestDir           string         `yaml:"test_dir"`
	PerfInput         string         `yaml:"perf_input"`
	TagsCommand       []string       `yaml:"tags_command"`
	DistName          string         `yaml:"dist_name"`
}

// ComponentsDTO lists the components of a stage tree.
type ComponentsDTO struct {
	Driver      ComponentDTO `yaml:"driver"`
	Core        ComponentDTO `yaml:"core"`
	Std         ComponentDTO `yaml:"std"`
	Compiler    ComponentDTO `yaml:"compiler"`
	PackageTool ComponentDTO `yaml:"package_tool"`
	DocTool     ComponentDTO `yaml:"doc_tool"`
	Runtime     ComponentDTO `yaml:"runtime"`
	Backend     ComponentDTO `yaml:"backend"`
	LinkSupport ComponentDTO `yaml:"link_support"`
}

// ComponentDTO represents one component definition.
type ComponentDTO struct {
	Name   string   `yaml:"name"`
	Root   string   `yaml:"root"`
	Dir    string   `yaml:"dir"`
	Recipe []string `yaml:"recipe"`
}

// InstrumentDTO configures the memory checker.
type InstrumentDTO struct {
	Tool     []string `yaml:"tool"`
	Enabled  bool     `yaml:"enabled"`
	KnownBad bool     `yaml:"known_bad"`
}

// GeneratedDTO is a statically generated output.
type GeneratedDTO struct {
	Output  string   `yaml:"output"`
	Command []string `yaml:"cmd"`
	Inputs  []string `yaml:"inputs"`
}

// SnapshotDTO locates stage-0 snapshots.
type SnapshotDTO struct {
	Manifest  string `yaml:"manifest"`
	Dir       string `yaml:"dir"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}
