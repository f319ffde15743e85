package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/academic-records-api/internal/gateway"
	"github.com/noah-isme/academic-records-api/internal/models"
)

// Upstream field names. Providers publish Portuguese keys; English aliases are accepted too.
var (
	keysName     = []string{"nome", "name"}
	keysProgram  = []string{"curso", "program"}
	keysModality = []string{"modalidade", "modality"}
	keysStatus   = []string{"status", "academic_status"}
	keysSeats    = []string{"vagas", "seats"}
	keysTitle    = []string{"titulo", "title"}
	keysAuthor   = []string{"autor", "author"}
	keysYear     = []string{"ano", "year"}
)

func mapStudent(rec gateway.Record) (*models.Student, error) {
	id, err := recordID(rec)
	if err != nil {
		return nil, err
	}
	return &models.Student{
		ID:             id,
		Name:           recordString(rec, keysName...),
		Program:        recordString(rec, keysProgram...),
		Modality:       recordString(rec, keysModality...),
		AcademicStatus: recordString(rec, keysStatus...),
	}, nil
}

func mapCourse(rec gateway.Record) (*models.CourseOffering, error) {
	id, err := recordID(rec)
	if err != nil {
		return nil, err
	}
	return &models.CourseOffering{
		ID:      id,
		Program: recordString(rec, keysProgram...),
		Title:   recordString(rec, keysName...),
		Seats:   recordInt(rec, keysSeats...),
	}, nil
}

func mapItem(rec gateway.Record) (*models.LibraryItem, error) {
	id, err := recordID(rec)
	if err != nil {
		return nil, err
	}
	return &models.LibraryItem{
		ID:     id,
		Title:  recordString(rec, keysTitle...),
		Author: recordString(rec, keysAuthor...),
		Year:   recordInt(rec, keysYear...),
		Status: recordString(rec, "status"),
	}, nil
}

// recordID extracts the required external id.
func recordID(rec gateway.Record) (int64, error) {
	raw, ok := rec["id"]
	if !ok || raw == nil {
		return 0, fmt.Errorf("record has no id")
	}
	id, ok := toInt64(raw)
	if !ok {
		return 0, fmt.Errorf("record id %v is not numeric", raw)
	}
	return id, nil
}

func recordString(rec gateway.Record, keys ...string) string {
	for _, key := range keys {
		switch v := rec[key].(type) {
		case nil:
			continue
		case string:
			return strings.TrimSpace(v)
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

func recordInt(rec gateway.Record, keys ...string) int {
	for _, key := range keys {
		if raw, ok := rec[key]; ok && raw != nil {
			if n, ok := toInt64(raw); ok {
				return int(n)
			}
			return 0
		}
	}
	return 0
}

func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
