package domain

// ActionKind selects the handler that executes an action.
type ActionKind string

const (
	// ActionCompile runs a stage compiler over a crate root.
	ActionCompile ActionKind = "compile"
	// ActionRecipe runs an external recipe producing an auxiliary artifact.
	ActionRecipe ActionKind = "recipe"
	// ActionCopy installs an auxiliary artifact into a stage tree.
	ActionCopy ActionKind = "copy"
	// ActionPromote copies a stage N target artifact into the stage N+1 host tree.
	ActionPromote ActionKind = "promote"
	// ActionFetch obtains the stage-0 snapshot.
	ActionFetch ActionKind = "fetch"
	// ActionPack writes an archive and its content hash sidecar.
	ActionPack ActionKind = "pack"
	// ActionUpload publishes an archive to the snapshot object store.
	ActionUpload ActionKind = "upload"
	// ActionRemove deletes paths.
	ActionRemove ActionKind = "remove"
	// ActionVerify compares artifacts of two stages by content.
	ActionVerify ActionKind = "verify"
	// ActionInstall copies an artifact under the install prefix.
	ActionInstall ActionKind = "install"
	// ActionCommand runs an arbitrary external command.
	ActionCommand ActionKind = "command"
)

// Environment variables handed to external recipes and the snapshot fetcher.
const (
	EnvOut      = "STAGEHAND_OUT"
	EnvTarget   = "STAGEHAND_TARGET"
	EnvHost     = "STAGEHAND_HOST"
	EnvStageDir = "STAGEHAND_STAGE_DIR"
	EnvLibDir   = "STAGEHAND_LIBDIR"
)

// Action is a node of the build graph. Its ID is its primary output path, or a
// synthetic name for actions without outputs.
type Action struct {
	ID   InternedString
	Kind ActionKind

	// Outputs are build-root relative paths written exclusively by this action.
	Outputs []string
	// Inputs are files read by the action. Inputs produced by another action become
	// dependency edges when the graph is linked.
	Inputs []string
	// Dependencies are ids of actions that must complete first.
	Dependencies []InternedString

	// Command is the argv for external kinds.
	Command []string
	// Environment is merged over the inherited environment.
	Environment map[string]string
	// WorkingDir defaults to the build root.
	WorkingDir string
	// DepFile is the dependency record the command writes, if any.
	DepFile string

	// Sources are copy, promote, install and pack sources. Copies pair them with
	// Outputs by index.
	Sources []string
	// Against pairs with Sources by index for verify actions.
	Against []string
	// Remove lists paths deleted by remove actions.
	Remove []string
	// Archive names the archive a fetch, pack or upload action reads or writes.
	Archive string
	// ArchivePrefix is prepended to entry names when packing.
	ArchivePrefix string

	// Ref records the artifact the action produces, for error context.
	Ref *ArtifactRef
	// AlwaysRun skips freshness checks.
	AlwaysRun bool
	// Mode is the file mode applied to copied outputs.
	Mode uint32
}

// Name returns the action id as a string.
func (a *Action) Name() string {
	return a.ID.String()
}

// Context returns key/value pairs describing where the action sits in the matrix.
func (a *Action) Context() []any {
	ctx := []any{"action", a.ID.String(), "kind", string(a.Kind)}
	if a.Ref != nil {
		ctx = append(ctx, "stage", int(a.Ref.Stage), "host", a.Ref.Host.String())
		if a.Ref.Target != "" {
			ctx = append(ctx, "target", a.Ref.Target.String())
		}
	}
	return ctx
}

// PlanContext accumulates cross-cutting lists during graph construction. It is built
// explicitly by the planner and handed to later consumers.
type PlanContext struct {
	// Outputs lists every declared output in insertion order.
	Outputs []string
	// Objects lists outputs of compile actions.
	Objects []string
	// Generated lists statically generated outputs.
	Generated []string
	// DepFiles lists dependency records that compile actions write.
	DepFiles []string
	// Sources lists every tracked source file seen.
	Sources []string
}
