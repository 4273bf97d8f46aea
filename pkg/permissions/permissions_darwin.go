//go:build darwin

package permissions

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework ApplicationServices -framework CoreGraphics
#import <Cocoa/Cocoa.h>
#import <ApplicationServices/ApplicationServices.h>
#import <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>

int axTrusted(int prompt) {
    NSDictionary *options = @{(__bridge NSString *)kAXTrustedCheckOptionPrompt: prompt ? @YES : @NO};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}

int checkScreenRecordingPermission() {
    if (@available(macOS 10.15, *)) {
        CFArrayRef windowList = CGWindowListCopyWindowInfo(
            kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
            kCGNullWindowID
        );

        if (windowList == NULL) {
            return 0;
        }

        CFIndex count = CFArrayGetCount(windowList);
        int hasNames = 0;

        for (CFIndex i = 0; i < count; i++) {
            CFDictionaryRef window = (CFDictionaryRef)CFArrayGetValueAtIndex(windowList, i);
            CFStringRef name = (CFStringRef)CFDictionaryGetValue(window, kCGWindowName);
            if (name != NULL && CFStringGetLength(name) > 0) {
                hasNames = 1;
                break;
            }
        }

        CFRelease(windowList);
        return (count == 0 || hasNames) ? 1 : 0;
    }
    return 1;
}

void openPrivacyPane(const char *pane) {
    NSString *url = [NSString stringWithFormat:@"x-apple.systempreferences:com.apple.preference.security?%s", pane];
    [[NSWorkspace sharedWorkspace] openURL:[NSURL URLWithString:url]];
}
*/
import "C"

import "unsafe"

func check() Status {
	return Status{
		Accessibility:   C.axTrusted(0) == 1,
		ScreenRecording: C.checkScreenRecordingPermission() == 1,
	}
}

// RequestAccessibility 触发系统授权弹窗
func RequestAccessibility() bool {
	return C.axTrusted(1) == 1
}

// OpenSettings 打开缺失权限对应的隐私设置页
func OpenSettings(s Status) {
	if !s.Accessibility {
		openPane("Privacy_Accessibility")
	}
	if !s.ScreenRecording {
		openPane("Privacy_ScreenCapture")
	}
}

func openPane(pane string) {
	cs := C.CString(pane)
	defer C.free(unsafe.Pointer(cs))
	C.openPrivacyPane(cs)
}
