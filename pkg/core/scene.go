// pkg/core/scene.go
package core

import "github.com/go-gl/mathgl/mgl64"

// CameraState is the smoothed chase-camera state.
type CameraState struct {
	Distance    float64 `json:"distance"`
	FOV         float64 `json:"fov"`
	AngleOffset float64 `json:"angleOffset"`
}

// CameraPose is the per-frame camera placement handed to a renderer.
type CameraPose struct {
	Position mgl64.Vec3 `json:"position"`
	LookAt   mgl64.Vec3 `json:"lookAt"`
	FOV      float64    `json:"fov"`
}

// EnvironmentState holds the day/night clock and the weather.
type EnvironmentState struct {
	GameTime       float64 `json:"gameTime"` // seconds, [0, day length)
	DayFactor      float64 `json:"dayFactor"`
	Raining        bool    `json:"raining"`
	RainIntensity  float64 `json:"rainIntensity"` // [0, 1]
	RainTimer      float64 `json:"rainTimer"`
	NextRainChange float64 `json:"nextRainChange"`
}

// RGB is a linear colour with components in [0, 1].
type RGB struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

// LightSignals are the lighting and weather outputs of a tick.
type LightSignals struct {
	Ambient       float64 `json:"ambient"`
	Directional   float64 `json:"directional"`
	SkyBlend      float64 `json:"skyBlend"`
	SkyColor      string  `json:"skyColor"` // #rrggbb
	Raining       bool    `json:"raining"`
	RainIntensity float64 `json:"rainIntensity"`
	RainVisible   bool    `json:"rainVisible"`
	HeadlightsOn  bool    `json:"headlightsOn"`
	RearLightsOn  bool    `json:"rearLightsOn"`
}
