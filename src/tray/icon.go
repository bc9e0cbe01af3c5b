package tray

import "fyne.io/fyne/v2"

// iconSVG is a speech bubble with a question mark.
const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <path d="M2 3.5C2 2.67 2.67 2 3.5 2h9c.83 0 1.5.67 1.5 1.5v6c0 .83-.67 1.5-1.5 1.5H7l-3 3v-3h-.5C2.67 11 2 10.33 2 9.5z" fill="#2c2c2c" stroke="#0078d4" stroke-width="1"/>
  <path d="M6.5 5.2a1.5 1.5 0 1 1 2.2 1.3c-.45.25-.7.55-.7 1v.3" fill="none" stroke="#ffffff" stroke-width="1" stroke-linecap="round"/>
  <circle cx="8" cy="9.3" r=".55" fill="#ffffff"/>
</svg>`

// Icon is the application and tray icon.
var Icon = fyne.NewStaticResource("offlinemind.svg", []byte(iconSVG))
