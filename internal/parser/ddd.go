package parser

import (
	"strings"

	"github.com/dshills/codeindex/pkg/types"
)

// Metadata keys set by domain-driven design detection. Values are always "true".
const (
	MetaAggregateRoot = "ddd.aggregate_root"
	MetaEntity        = "ddd.entity"
	MetaValueObject   = "ddd.value_object"
	MetaRepository    = "ddd.repository"
	MetaService       = "ddd.service"
	MetaCommand       = "ddd.command"
	MetaQuery         = "ddd.query"
	MetaHandler       = "ddd.handler"
)

// detectDDDPatterns tags type symbols with domain-driven design roles based
// on naming conventions and, for structs, their field names
func detectDDDPatterns(sym *types.Symbol, fields []string) {
	if sym.Kind != types.KindStruct && sym.Kind != types.KindInterface && sym.Kind != types.KindClass {
		return
	}
	if sym.Metadata == nil {
		sym.Metadata = make(map[string]string)
	}

	checkAggregateRoot(sym)
	checkEntity(sym, fields)
	checkValueObject(sym)
	checkRepository(sym)
	checkService(sym)
	checkCommand(sym)
	checkQuery(sym)
	checkHandler(sym)
}

func mark(sym *types.Symbol, key string) {
	sym.Metadata[key] = "true"
}

func marked(sym *types.Symbol, key string) bool {
	return sym.Metadata[key] == "true"
}

func checkAggregateRoot(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Aggregate") || strings.HasSuffix(sym.Name, "AggregateRoot") {
		mark(sym, MetaAggregateRoot)
		mark(sym, MetaEntity) // Aggregates are also entities
	}
}

func checkEntity(sym *types.Symbol, fields []string) {
	if marked(sym, MetaEntity) {
		return
	}

	if strings.HasSuffix(sym.Name, "Entity") {
		mark(sym, MetaEntity)
		return
	}

	if strings.HasSuffix(sym.Name, "Service") || strings.HasSuffix(sym.Name, "Repository") ||
		strings.HasSuffix(sym.Name, "Handler") {
		return
	}

	entityIndicators := []string{"Order", "User", "Product", "Account", "Customer", "Item"}
	for _, indicator := range entityIndicators {
		if strings.Contains(sym.Name, indicator) {
			mark(sym, MetaEntity)
			return
		}
	}

	if sym.Kind == types.KindStruct && IsEntityLikeStruct(fields) {
		mark(sym, MetaEntity)
	}
}

func checkValueObject(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "VO") || strings.HasSuffix(sym.Name, "ValueObject") {
		mark(sym, MetaValueObject)
	}
}

func checkRepository(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Repository") || strings.HasSuffix(sym.Name, "Repo") {
		mark(sym, MetaRepository)
	}
}

func checkService(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Service") {
		mark(sym, MetaService)
	}
}

func checkCommand(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Command") || strings.HasSuffix(sym.Name, "Cmd") {
		mark(sym, MetaCommand)
	}
}

func checkQuery(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Query") {
		mark(sym, MetaQuery)
	}
}

func checkHandler(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Handler") {
		mark(sym, MetaHandler)
	}
}

// IsEntityLikeStruct reports whether a struct's field names include an
// identifier such as "ID" or "UserID"
func IsEntityLikeStruct(fields []string) bool {
	for _, field := range fields {
		fieldLower := strings.ToLower(field)
		if fieldLower == "id" || strings.HasSuffix(fieldLower, "id") {
			return true
		}
	}
	return false
}
