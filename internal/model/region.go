package model

import (
	"fmt"
	"strings"
)

// MacroRegion は地方区分（北部・中部・南部）を表す。
type MacroRegion string

const (
	MacroRegionNorth   MacroRegion = "North"
	MacroRegionCentral MacroRegion = "Central"
	MacroRegionSouth   MacroRegion = "South"
)

// ParseMacroRegion は入力文字列を正規化してMacroRegionに変換する。
// 大文字小文字は区別しない。許可外の値はエラーを返す。
func ParseMacroRegion(s string) (MacroRegion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north":
		return MacroRegionNorth, nil
	case "central":
		return MacroRegionCentral, nil
	case "south":
		return MacroRegionSouth, nil
	default:
		return "", fmt.Errorf("invalid macro region: %q (allowed: North/Central/South)", s)
	}
}

// Region は地域（ミエン）を表す。codeは作成後に変更不可の主キー。
type Region struct {
	Code        string
	Name        string
	MacroRegion MacroRegion
	// Number は表示順序。未指定の場合はnil。
	Number *int
}
