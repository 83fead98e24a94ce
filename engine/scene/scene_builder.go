package scene

import "github.com/Carmen-Shannon/eyengine/engine/camera"

// SceneBuilderOption is a functional option for configuring a Scene. Options that add draw items
// can fail, the first failure is returned by NewScene.
type SceneBuilderOption func(*scene) error

// WithActive sets whether the scene starts active. Scenes are active by default.
//
// Parameters:
//   - active: true to draw the scene
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) error {
		s.active = active
		return nil
	}
}

// WithCamera sets the scene's camera.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) error {
		s.camera = cam
		return nil
	}
}

// WithItems adds draw items in order, each checked as by Scene.Add.
//
// Parameters:
//   - items: the draw items
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithItems(items ...DrawItem) SceneBuilderOption {
	return func(s *scene) error {
		for _, item := range items {
			if err := s.add(item); err != nil {
				return err
			}
		}
		return nil
	}
}
