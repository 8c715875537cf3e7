// Package metrics holds the per-run pipeline metric record.
//
// A Record has a closed set of fields. Callers fill it in as a unit of work
// progresses, and every mutation re-derives the timestamp fields and a
// fresh host stats reading.
package metrics

import (
	"time"

	"github.com/samber/lo"
)

// Field names, in schema order.
const (
	FieldAppEnv          = "app_env"
	FieldPipelineID      = "pipeline_id"
	FieldPipelineName    = "pipeline_name"
	FieldScriptID        = "script_id"
	FieldScriptName      = "script_name"
	FieldProcessID       = "process_id"
	FieldProcessName     = "process_name"
	FieldTriggerType     = "trigger_type"
	FieldTriggerName     = "trigger_name"
	FieldRootProcessType = "root_process_type"
	FieldOperationType   = "operation_type"
	FieldFunctionName    = "function_name"
	FieldRows            = "rows"
	FieldPreviousRows    = "previous_rows"
	FieldPath            = "path"
	FieldSrcPaths        = "src_paths"
	FieldTargetPaths     = "target_paths"
	FieldMinBusinessDate = "min_business_date"
	FieldMaxBusinessDate = "max_business_date"
	FieldPipelineStatus  = "pipeline_status"
	FieldMessage         = "message"
	FieldTimestamp       = "timestamp"
	FieldTimezone        = "timezone"
	FieldExecutionDate   = "execution_date"
	FieldPipelineStartTS = "pipeline_start_ts"
	FieldPipelineEndTS   = "pipeline_end_ts"
	FieldScriptStartTS   = "script_start_ts"
	FieldScriptEndTS     = "script_end_ts"
	FieldMachineStats    = "machine_stats"
	FieldVar1            = "var1"
	FieldVar2            = "var2"
	FieldVar3            = "var3"
)

// Environment variables used to back-fill absent fields.
const (
	EnvAppEnv   = "APP_ENV"
	EnvTimezone = "LOG_TIMEZONE"
)

// Common pipeline_status values. Any string is accepted.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Kind is the value type a field stores.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindStringList
	KindTime // stored as an RFC 3339 UTC string
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindStringList:
		return "string list"
	case KindTime:
		return "timestamp"
	default:
		return "string"
	}
}

// Field describes one entry of the record schema.
type Field struct {
	Name    string
	Kind    Kind
	Env     string // environment variable used when the field is absent
	Derived bool   // recomputed on every refresh
}

// Schema lists every field a Record carries, in output column order.
var Schema = []Field{
	{Name: FieldAppEnv, Env: EnvAppEnv},
	{Name: FieldPipelineID},
	{Name: FieldPipelineName},
	{Name: FieldScriptID},
	{Name: FieldScriptName},
	{Name: FieldProcessID, Kind: KindInt},
	{Name: FieldProcessName},
	{Name: FieldTriggerType},
	{Name: FieldTriggerName},
	{Name: FieldRootProcessType},
	{Name: FieldOperationType},
	{Name: FieldFunctionName},
	{Name: FieldRows, Kind: KindInt},
	{Name: FieldPreviousRows, Kind: KindInt},
	{Name: FieldPath},
	{Name: FieldSrcPaths, Kind: KindStringList},
	{Name: FieldTargetPaths, Kind: KindStringList},
	{Name: FieldMinBusinessDate},
	{Name: FieldMaxBusinessDate},
	{Name: FieldPipelineStatus},
	{Name: FieldMessage},
	{Name: FieldTimestamp, Derived: true},
	{Name: FieldTimezone, Env: EnvTimezone, Derived: true},
	{Name: FieldExecutionDate, Derived: true},
	{Name: FieldPipelineStartTS, Kind: KindTime},
	{Name: FieldPipelineEndTS, Kind: KindTime},
	{Name: FieldScriptStartTS, Kind: KindTime},
	{Name: FieldScriptEndTS, Kind: KindTime},
	{Name: FieldMachineStats, Derived: true},
	{Name: FieldVar1},
	{Name: FieldVar2},
	{Name: FieldVar3},
}

var schemaIndex = lo.KeyBy(Schema, func(f Field) string { return f.Name })

// FieldNames returns the schema field names in order.
func FieldNames() []string {
	return lo.Map(Schema, func(f Field, _ int) string { return f.Name })
}

// Lookup returns the schema entry for a field name.
func Lookup(name string) (Field, bool) {
	f, ok := schemaIndex[name]
	return f, ok
}

// Fields is a sparse, typed update. A nil pointer or an empty slice means
// "not supplied" and never clears a stored value.
type Fields struct {
	AppEnv          *string    `json:"app_env"`
	PipelineID      *string    `json:"pipeline_id"`
	PipelineName    *string    `json:"pipeline_name"`
	ScriptID        *string    `json:"script_id"`
	ScriptName      *string    `json:"script_name"`
	ProcessName     *string    `json:"process_name"`
	TriggerType     *string    `json:"trigger_type"`
	TriggerName     *string    `json:"trigger_name"`
	RootProcessType *string    `json:"root_process_type"`
	OperationType   *string    `json:"operation_type"`
	FunctionName    *string    `json:"function_name"`
	Rows            *int64     `json:"rows"`
	PreviousRows    *int64     `json:"previous_rows"`
	Path            *string    `json:"path"`
	SrcPaths        []string   `json:"src_paths"`
	TargetPaths     []string   `json:"target_paths"`
	MinBusinessDate *string    `json:"min_business_date"`
	MaxBusinessDate *string    `json:"max_business_date"`
	PipelineStatus  *string    `json:"pipeline_status"`
	Message         *string    `json:"message"`
	PipelineStartTS *time.Time `json:"pipeline_start_ts"`
	PipelineEndTS   *time.Time `json:"pipeline_end_ts"`
	ScriptStartTS   *time.Time `json:"script_start_ts"`
	ScriptEndTS     *time.Time `json:"script_end_ts"`
	Var1            *string    `json:"var1"`
	Var2            *string    `json:"var2"`
	Var3            *string    `json:"var3"`
}
