// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package models

import "sort"

// GeoJSONFeature is a single RFC 7946 Feature.
type GeoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// GeoJSONGeometry holds LineString coordinates as [lon, lat] pairs.
type GeoJSONGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// JourneyToGeoJSON renders a journey as a LineString Feature with its
// waypoints in seq order.
func JourneyToGeoJSON(j *Journey) GeoJSONFeature {
	points := make([]Waypoint, len(j.Waypoints))
	copy(points, j.Waypoints)
	sort.SliceStable(points, func(a, b int) bool { return points[a].Seq < points[b].Seq })

	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, []float64{p.Lon, p.Lat})
	}

	var description interface{}
	if j.Description != nil {
		description = *j.Description
	}
	return GeoJSONFeature{
		Type: "Feature",
		Geometry: GeoJSONGeometry{
			Type:        "LineString",
			Coordinates: coords,
		},
		Properties: map[string]interface{}{
			"name":        j.Name,
			"description": description,
		},
	}
}
