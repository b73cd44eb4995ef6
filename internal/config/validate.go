package config

import "fmt"

// Validate rejects settings the foliage systems cannot work with.
func (c *Config) Validate() error {
	if c.Graphics.SunLatitude < 0 || c.Graphics.SunLatitude > 90 {
		return fmt.Errorf("graphics.sun_latitude %v must be in [0, 90]", c.Graphics.SunLatitude)
	}
	if c.Paging.PageSize <= 0 {
		return fmt.Errorf("paging.page_size must be positive, got %v", c.Paging.PageSize)
	}
	if c.Paging.FarRange < c.Paging.PageSize {
		return fmt.Errorf("paging.far_range %v is smaller than one page", c.Paging.FarRange)
	}
	if c.Paging.GrassRange <= 0 || c.Paging.GrassRange > c.Paging.FarRange {
		return fmt.Errorf("paging.grass_range %v must be in (0, far_range]", c.Paging.GrassRange)
	}
	if c.Paging.TreeRange < 0 || c.Paging.TreeRange > c.Paging.FarRange {
		return fmt.Errorf("paging.tree_range %v must be in [0, far_range]", c.Paging.TreeRange)
	}
	if c.Impostor.Resolution < 1 {
		return fmt.Errorf("impostor.resolution must be positive, got %d", c.Impostor.Resolution)
	}
	if c.Impostor.PitchAngles < 1 || c.Impostor.YawAngles < 1 {
		return fmt.Errorf("impostor angle grid %dx%d is empty", c.Impostor.PitchAngles, c.Impostor.YawAngles)
	}
	for i, l := range c.Grass.Layers {
		if l.Material == "" {
			return fmt.Errorf("grass.layers[%d]: material is required", i)
		}
		if l.Density < 0 {
			return fmt.Errorf("grass.layers[%d]: negative density %v", i, l.Density)
		}
	}
	return nil
}
