package sla

import "github.com/m00npl/guardant/pkg/store"

func targetKey(id string) string      { return "sla-target:" + id }
func measurementKey(id string) string { return "sla-measurement:" + id }

const dataType = store.DataTypeSLAData
