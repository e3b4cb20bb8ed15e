package view

// Asset locations registered with the host, relative to the plugin root.
const (
	PublicDir   = "theme/public"
	TemplateDir = "theme/templates"
	BundleName  = "ckanext-reclinepreview"
)

// AssetPipeline is the host side of asset registration.
type AssetPipeline interface {
	// AddPublicDirectory exposes dir as static files.
	AddPublicDirectory(dir string) error
	// AddTemplateDirectory adds dir to the template search path.
	AddTemplateDirectory(dir string) error
	// AddResource declares the front-end bundle name built from dir.
	AddResource(dir, name string) error
}

// RegisterAssets mounts the public directory, the template directory and
// the front-end bundle shared by every variant.
func RegisterAssets(p AssetPipeline) error {
	if err := p.AddPublicDirectory(PublicDir); err != nil {
		return err
	}
	if err := p.AddTemplateDirectory(TemplateDir); err != nil {
		return err
	}
	return p.AddResource(PublicDir, BundleName)
}
